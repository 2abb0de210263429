package environment

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// SystemLayerName names the layer built from the process environment.
const SystemLayerName = "systemEnvironment"

var ErrMalformedPair = errors.New("malformed key=value pair")

// Layer is a named, immutable set of key/value pairs. Keys are stored as
// declared; lookups fall back to relaxed matching, so "spring.redis.host"
// also finds "SPRING_REDIS_HOST".
type Layer struct {
	name   string
	keys   []string // insertion order
	values map[string]string
}

// Pair is one key and its value.
type Pair struct {
	Key   string
	Value string
}

func newLayer(name string) *Layer {
	return &Layer{name: name, values: make(map[string]string)}
}

func (l *Layer) put(key, value string) {
	if _, ok := l.values[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.values[key] = value
}

// NewLayer builds a layer from a map. Keys are ordered alphabetically.
func NewLayer(name string, values map[string]string) *Layer {
	l := newLayer(name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		l.put(k, values[k])
	}
	return l
}

// NewLayerFromPairs builds a layer from pairs in order. When a key repeats,
// the last value wins and the key keeps its first position.
func NewLayerFromPairs(name string, pairs ...Pair) (*Layer, error) {
	l := newLayer(name)
	for _, p := range pairs {
		if strings.TrimSpace(p.Key) == "" {
			return nil, fmt.Errorf("layer %q: %w: empty key", name, ErrMalformedPair)
		}
		l.put(p.Key, p.Value)
	}
	return l, nil
}

// ParseLayer builds a layer from "key=value" lines, splitting each on its
// first '='. When a key repeats, the last value wins and the key keeps its
// first position.
func ParseLayer(name string, pairs ...string) (*Layer, error) {
	l := newLayer(name)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("layer %q: %w: %q", name, ErrMalformedPair, pair)
		}
		l.put(key, value)
	}
	return l, nil
}

// System returns a layer holding the current process environment.
func System() *Layer {
	l := newLayer(SystemLayerName)
	environ := os.Environ()
	sort.Strings(environ)
	for _, e := range environ {
		if key, value, ok := strings.Cut(e, "="); ok && key != "" {
			l.put(key, value)
		}
	}
	return l
}

// Dotenv reads a .env file into a layer.
func Dotenv(name, path string) (*Layer, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read dotenv %s: %w", path, err)
	}
	return NewLayer(name, values), nil
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) Len() int { return len(l.keys) }

// Get looks key up exactly, then in relaxed form. When several keys match
// relaxed, the last declared one wins.
func (l *Layer) Get(key string) (string, bool) {
	if v, ok := l.values[key]; ok {
		return v, true
	}
	ck := Canonical(key)
	var (
		v     string
		found bool
	)
	for _, k := range l.keys {
		if Canonical(k) == ck {
			v, found = l.values[k], true
		}
	}
	return v, found
}

// Keys returns the keys as declared, in order.
func (l *Layer) Keys() []string {
	return slices.Clone(l.keys)
}

// Map returns a copy of the layer.
func (l *Layer) Map() map[string]string {
	return maps.Clone(l.values)
}

// Canonical returns the relaxed form of key: upper case, with '.' and '-'
// replaced by '_'.
func Canonical(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-':
			return '_'
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(key)))
}
