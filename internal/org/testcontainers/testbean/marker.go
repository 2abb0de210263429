package testbean

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// Accessor computes a property value from the value of the field it is
// declared on.
type Accessor func(ctx context.Context, root any) (any, error)

// Declaration is one key plus the accessor that produces its value.
type Declaration struct {
	Key  string
	Expr string

	eval Accessor
	err  error
}

// Property declares key with an accessor closure.
func Property(key string, fn Accessor) Declaration {
	d := Declaration{Key: key, Expr: key + "=<func>", eval: fn}
	if strings.TrimSpace(key) == "" {
		d.err = fmt.Errorf("%w: empty key", ErrMalformedDeclaration)
	}
	return d
}

// Typed declares key with an accessor that expects a root of type T.
func Typed[T any](key string, fn func(ctx context.Context, root T) (any, error)) Declaration {
	return Property(key, func(ctx context.Context, root any) (any, error) {
		v, ok := root.(T)
		if !ok {
			return nil, fmt.Errorf("root is %T, want %v", root, reflect.TypeOf((*T)(nil)).Elem())
		}
		return fn(ctx, v)
	})
}

// Decl parses the textual "key=expression" form. The expression is a gjson
// path evaluated against the JSON encoding of the field value. Parse errors
// are kept on the declaration and reported when it is extracted.
func Decl(s string) Declaration {
	key, expr, err := ParseDeclaration(s)
	if err != nil {
		return Declaration{Key: key, Expr: s, err: err}
	}
	return Declaration{Key: key, Expr: s, eval: pathAccessor(expr)}
}

// ParseDeclaration splits s on its first '='. The expression may contain
// further '=' characters.
func ParseDeclaration(s string) (key, expr string, err error) {
	key, expr, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	expr = strings.TrimSpace(expr)
	switch {
	case !ok:
		return "", "", fmt.Errorf("%w: %q has no '='", ErrMalformedDeclaration, s)
	case key == "":
		return "", "", fmt.Errorf("%w: %q has an empty key", ErrMalformedDeclaration, s)
	case expr == "":
		return "", "", fmt.Errorf("%w: %q has an empty expression", ErrMalformedDeclaration, s)
	}
	return key, expr, nil
}

func pathAccessor(path string) Accessor {
	return func(_ context.Context, root any) (any, error) {
		var data []byte
		switch v := root.(type) {
		case gjson.Result:
			data = []byte(v.Raw)
		case json.RawMessage:
			data = v
		default:
			b, err := json.Marshal(root)
			if err != nil {
				return nil, fmt.Errorf("encode %T: %w", root, err)
			}
			data = b
		}
		res := gjson.GetBytes(data, path)
		if !res.Exists() {
			return nil, fmt.Errorf("path %q not found on %T", path, root)
		}
		return res, nil
	}
}

// Marker is the ordered list of declarations attached to a field.
type Marker []Declaration

// Mark builds a marker from declarations.
func Mark(decls ...Declaration) Marker {
	return Marker(decls)
}

// Properties builds a marker from "key=expression" lines.
func Properties(lines ...string) Marker {
	m := make(Marker, 0, len(lines))
	for _, l := range lines {
		m = append(m, Decl(l))
	}
	return m
}

// Compose merges markers in order into a new marker. A user-defined marker
// built with Compose can be attached wherever its parts could be.
func Compose(markers ...Marker) Marker {
	var out Marker
	for _, m := range markers {
		out = append(out, m...)
	}
	return out
}

// With returns a copy of m with decls appended.
func (m Marker) With(decls ...Declaration) Marker {
	return Compose(m, decls)
}
