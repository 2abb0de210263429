// Package environment holds the configuration an application is built from:
// an ordered list of named layers where the first layer has the highest
// precedence.
package environment

import (
	"slices"
	"sync"
)

// Environment is an ordered set of named layers. Lookups consult the layers
// first to last and return the first hit.
type Environment struct {
	mu     sync.RWMutex
	layers []*Layer
}

// New creates an environment from layers given in precedence order.
// Nil layers are ignored.
func New(layers ...*Layer) *Environment {
	e := &Environment{}
	for _, l := range layers {
		e.AddLast(l)
	}
	return e
}

// AddFirst installs l with the highest precedence, replacing any layer
// with the same name.
func (e *Environment) AddFirst(l *Layer) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layers = append([]*Layer{l}, e.without(l.name)...)
}

// AddLast installs l with the lowest precedence, replacing any layer with
// the same name.
func (e *Environment) AddLast(l *Layer) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layers = append(e.without(l.name), l)
}

// Remove drops the named layer and reports whether it was present.
func (e *Environment) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.layers)
	e.layers = e.without(name)
	return len(e.layers) != n
}

// caller must hold mu
func (e *Environment) without(name string) []*Layer {
	return slices.DeleteFunc(slices.Clone(e.layers), func(l *Layer) bool {
		return l.name == name
	})
}

// Layer returns the named layer.
func (e *Environment) Layer(name string) (*Layer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, l := range e.layers {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Names lists layer names in precedence order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.layers))
	for _, l := range e.layers {
		names = append(names, l.name)
	}
	return names
}

// Get resolves key against the layers in precedence order.
func (e *Environment) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, l := range e.layers {
		if v, ok := l.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

func (e *Environment) GetOrDefault(key, def string) string {
	if v, ok := e.Get(key); ok {
		return v
	}
	return def
}

// Relaxed flattens the environment into canonical keys
// (SPRING_REDIS_HOST style), suitable for env-tag based binding.
func (e *Environment) Relaxed() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m := make(map[string]string)
	for i := len(e.layers) - 1; i >= 0; i-- {
		l := e.layers[i]
		for _, k := range l.keys {
			m[Canonical(k)] = l.values[k]
		}
	}
	return m
}
