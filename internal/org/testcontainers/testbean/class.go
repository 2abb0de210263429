package testbean

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Field is a registered static field of a test class. Get returns the
// field's current value and is only called during extraction.
type Field struct {
	Name   string
	Get    func() any
	Marker Marker
}

// Class describes a test class: its fields in declaration order and the
// class it extends.
type Class struct {
	Name   string
	Parent *Class
	Fields []Field
}

func NewClass(name string) *Class {
	return &Class{Name: name}
}

// Extends sets the parent class.
func (c *Class) Extends(parent *Class) *Class {
	c.Parent = parent
	return c
}

// Field registers a field. All markers are composed onto it in order.
func (c *Class) Field(name string, get func() any, markers ...Marker) *Class {
	c.Fields = append(c.Fields, Field{Name: name, Get: get, Marker: Compose(markers...)})
	return c
}

// Static returns a getter that reads *p each time it is called.
func Static[T any](p *T) func() any {
	return func() any { return *p }
}

// Binding pairs a field with the class that declares it.
type Binding struct {
	Owner string
	Field Field
}

// Scan lists the fields of c and its ancestors, parent class first and
// declaration order within a class. Fields named with a leading underscore
// are synthetic and skipped.
func Scan(c *Class) ([]Binding, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil class", ErrInvalidClass)
	}

	var chain []*Class
	seen := make(map[*Class]bool)
	for k := c; k != nil; k = k.Parent {
		if seen[k] {
			return nil, fmt.Errorf("%w: %s has a cyclic parent chain", ErrInvalidClass, c.Name)
		}
		if k.Name == "" {
			return nil, fmt.Errorf("%w: unnamed class in hierarchy of %q", ErrInvalidClass, c.Name)
		}
		seen[k] = true
		chain = append(chain, k)
	}

	var out []Binding
	for i := len(chain) - 1; i >= 0; i-- {
		k := chain[i]
		for _, f := range k.Fields {
			if strings.HasPrefix(f.Name, "_") {
				continue
			}
			out = append(out, Binding{Owner: k.Name, Field: f})
		}
	}
	return out, nil
}

// Registry maps test class names to their registrations.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds or replaces a class.
func (r *Registry) Register(c *Class) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("%w: class must have a name", ErrInvalidClass)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.Name] = c
	return nil
}

// MustRegister is Register for package-level registration; it panics on error.
func (r *Registry) MustRegister(c *Class) *Class {
	if err := r.Register(c); err != nil {
		panic(err)
	}
	return c
}

func (r *Registry) Lookup(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	return c, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
