package testbean

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

// SourceName is the name of the layer the resolved properties are installed
// under. Installing again replaces the previous layer.
const SourceName = "testcontainers"

// Resolved is a resolved key and its text value.
type Resolved struct {
	Key   string
	Value string
}

func (p Resolved) String() string { return p.Key + "=" + p.Value }

// PropertySet is the ordered result of one extraction pass.
type PropertySet []Resolved

// Strings renders the set as "key=value" lines.
func (s PropertySet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range s {
		out = append(out, p.String())
	}
	return out
}

// Map collapses the set; a repeated key keeps its last value.
func (s PropertySet) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, p := range s {
		m[p.Key] = p.Value
	}
	return m
}

// Extract evaluates every declaration of every bound field. Fields without
// declarations are skipped. The first failure aborts the pass.
func Extract(ctx context.Context, bindings []Binding) (PropertySet, error) {
	var set PropertySet
	for _, b := range bindings {
		if len(b.Field.Marker) == 0 {
			continue
		}
		for _, d := range b.Field.Marker {
			if d.err != nil {
				return nil, fieldError(b, d.Expr, d.err, nil)
			}
		}

		root, err := read(b)
		if err != nil {
			return nil, err
		}

		for _, d := range b.Field.Marker {
			if d.eval == nil {
				return nil, fieldError(b, d.Expr, ErrMalformedDeclaration, errors.New("no accessor"))
			}
			v, err := d.eval(ctx, root)
			if err != nil {
				return nil, fieldError(b, d.Expr, ErrExpressionEvaluation, err)
			}
			if isNil(v) {
				return nil, fieldError(b, d.Expr, ErrExpressionEvaluation, errors.New("evaluated to nil"))
			}
			set = append(set, Resolved{Key: d.Key, Value: text(v)})
		}
	}
	return set, nil
}

func read(b Binding) (v any, err error) {
	if b.Field.Get == nil {
		return nil, fieldError(b, "", ErrFieldAccess, errors.New("no getter"))
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fieldError(b, "", ErrFieldAccess, fmt.Errorf("getter panicked: %v", r))
		}
	}()
	v = b.Field.Get()
	if isNil(v) {
		return nil, fieldError(b, "", ErrFieldAccess, errors.New("field is not initialized"))
	}
	return v, nil
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Install puts set into env as the highest precedence layer named
// SourceName, replacing the previous one. Nothing changes on error.
func Install(env *environment.Environment, set PropertySet) (*environment.Layer, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil environment", ErrOverlayInstallation)
	}
	pairs := make([]environment.Pair, 0, len(set))
	for _, p := range set {
		pairs = append(pairs, environment.Pair{Key: p.Key, Value: p.Value})
	}
	layer, err := environment.NewLayerFromPairs(SourceName, pairs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOverlayInstallation, err)
	}
	env.AddFirst(layer)
	return layer, nil
}
