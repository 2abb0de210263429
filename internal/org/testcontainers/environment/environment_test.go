package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayer(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pairs",
			pairs: []string{"spring.redis.host=localhost", "spring.redis.port=32768"},
			want:  map[string]string{"spring.redis.host": "localhost", "spring.redis.port": "32768"},
		},
		{
			name:  "value keeps extra separators",
			pairs: []string{"filter=a=b=c"},
			want:  map[string]string{"filter": "a=b=c"},
		},
		{
			name:  "empty value",
			pairs: []string{"empty="},
			want:  map[string]string{"empty": ""},
		},
		{
			name:  "last value wins",
			pairs: []string{"k=1", "other=x", "k=2"},
			want:  map[string]string{"k": "2", "other": "x"},
		},
		{name: "missing separator", pairs: []string{"badentry"}, wantErr: true},
		{name: "empty key", pairs: []string{"=value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseLayer("test", tt.pairs...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedPair)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Map())
		})
	}
}

func TestParseLayerKeepsFirstPosition(t *testing.T) {
	l, err := ParseLayer("test", "b=1", "a=1", "b=2")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, l.Keys())
	v, _ := l.Get("b")
	assert.Equal(t, "2", v)
}

func TestLayerRelaxedLookup(t *testing.T) {
	l := NewLayer("test", map[string]string{"spring.redis-host": "localhost"})

	for _, key := range []string{"spring.redis-host", "SPRING_REDIS_HOST", "spring.redis.host"} {
		v, ok := l.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, "localhost", v, key)
	}
}

func TestEnvironmentPrecedence(t *testing.T) {
	low := NewLayer("low", map[string]string{"SPRING_REDIS_HOST": "redis", "only.low": "1"})
	high := NewLayer("high", map[string]string{"spring.redis.host": "localhost"})

	env := New(low)
	env.AddFirst(high)

	assert.Equal(t, []string{"high", "low"}, env.Names())
	v, ok := env.Get("spring.redis.host")
	require.True(t, ok)
	assert.Equal(t, "localhost", v)
	assert.Equal(t, "1", env.GetOrDefault("only.low", "x"))
	assert.Equal(t, "x", env.GetOrDefault("missing", "x"))

	relaxed := env.Relaxed()
	assert.Equal(t, "localhost", relaxed["SPRING_REDIS_HOST"])
	assert.Equal(t, "1", relaxed["ONLY_LOW"])
}

func TestEnvironmentAddFirstReplaces(t *testing.T) {
	env := New(NewLayer("base", map[string]string{"a": "base"}))

	env.AddFirst(NewLayer("overlay", map[string]string{"a": "one", "stale": "yes"}))
	env.AddFirst(NewLayer("overlay", map[string]string{"a": "two"}))

	assert.Equal(t, []string{"overlay", "base"}, env.Names())
	v, _ := env.Get("a")
	assert.Equal(t, "two", v)
	_, ok := env.Get("stale")
	assert.False(t, ok, "replaced layer must not leave stale keys")
}

func TestEnvironmentAddLastAndRemove(t *testing.T) {
	env := New(NewLayer("a", nil), nil)
	env.AddLast(NewLayer("b", map[string]string{"k": "b"}))
	env.AddLast(NewLayer("a", map[string]string{"k": "a"}))

	assert.Equal(t, []string{"b", "a"}, env.Names())
	v, _ := env.Get("k")
	assert.Equal(t, "b", v)

	assert.True(t, env.Remove("b"))
	assert.False(t, env.Remove("b"))
	_, ok := env.Layer("b")
	assert.False(t, ok)
	l, ok := env.Layer("a")
	require.True(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestSystemLayer(t *testing.T) {
	t.Setenv("TESTBEAN_SYSTEM_FLAG", "on")

	env := New(System())
	v, ok := env.Get("testbean.system.flag")
	require.True(t, ok)
	assert.Equal(t, "on", v)
}

func TestDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090\n# comment\nSPRING_REDIS_HOST=redis\n"), 0o600))

	l, err := Dotenv("dotenv", path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", l.Name())
	assert.Equal(t, map[string]string{"SERVER_PORT": "9090", "SPRING_REDIS_HOST": "redis"}, l.Map())

	_, err = Dotenv("dotenv", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLayerKeepsDistinctKeys(t *testing.T) {
	l, err := NewLayerFromPairs("test",
		Pair{Key: "server.port", Value: "1"},
		Pair{Key: "server-port", Value: "2"},
		Pair{Key: "thePort", Value: "3"},
		Pair{Key: "theport", Value: "4"},
		Pair{Key: "a=b", Value: "v"},
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"server.port": "1",
		"server-port": "2",
		"thePort":     "3",
		"theport":     "4",
		"a=b":         "v",
	}, l.Map())
	assert.Equal(t, []string{"server.port", "server-port", "thePort", "theport", "a=b"}, l.Keys())

	tests := []struct {
		key  string
		want string
	}{
		{key: "server.port", want: "1"},
		{key: "server-port", want: "2"},
		{key: "thePort", want: "3"},
		{key: "theport", want: "4"},
		{key: "SERVER_PORT", want: "2"},
		{key: "THEPORT", want: "4"},
	}
	for _, tt := range tests {
		v, ok := l.Get(tt.key)
		assert.True(t, ok, tt.key)
		assert.Equal(t, tt.want, v, tt.key)
	}

	relaxed := New(l).Relaxed()
	assert.Equal(t, "2", relaxed["SERVER_PORT"])
}

func TestNewLayerFromPairsRejectsEmptyKey(t *testing.T) {
	l, err := NewLayerFromPairs("test", Pair{Key: "ok", Value: "1"}, Pair{Key: " ", Value: "2"})
	require.ErrorIs(t, err, ErrMalformedPair)
	assert.Nil(t, l)
}

func TestExactKeyBeatsRelaxedInLowerLayer(t *testing.T) {
	high := NewLayer("high", map[string]string{"SPRING_REDIS_HOST": "localhost"})
	low := NewLayer("low", map[string]string{"spring.redis.host": "redis.internal"})

	v, ok := New(high, low).Get("spring.redis.host")
	require.True(t, ok)
	assert.Equal(t, "localhost", v)
}
