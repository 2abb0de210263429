package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

func TestFromEnvironmentDefaults(t *testing.T) {
	c, err := FromEnvironment(environment.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", c.ServerPort)
	assert.Equal(t, "localhost:6379", c.RedisAddr())
	assert.Equal(t, "value-updates", c.KafkaTopic)
	assert.False(t, c.KafkaEnabled())
	assert.Equal(t, ":8080", c.ServerAddr())
}

func TestLoadConfigFromProcess(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SPRING_REDIS_HOST", "redis")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.ServerPort)
	assert.Equal(t, "redis", c.RedisHost)
}

func TestFromEnvironmentOverlayWins(t *testing.T) {
	app := environment.NewLayer("application", map[string]string{
		"SPRING_REDIS_HOST": "redis.internal",
		"SPRING_REDIS_PORT": "6379",
		"LOG_LEVEL":         "debug",
	})
	overlay, err := environment.ParseLayer("testcontainers",
		"spring.redis.host=localhost",
		"spring.redis.port=32768",
		"spring.kafka.bootstrap-servers=localhost:49153",
	)
	require.NoError(t, err)

	c, err := FromEnvironment(environment.New(overlay, app))
	require.NoError(t, err)

	assert.Equal(t, "localhost:32768", c.RedisAddr())
	assert.Equal(t, []string{"localhost:49153"}, c.KafkaBootstrapServers)
	assert.True(t, c.KafkaEnabled())
	assert.Equal(t, "debug", c.LogLevel)
}

func TestFromEnvironmentInvalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{name: "port not numeric", values: map[string]string{"spring.redis.port": "abc"}},
		{name: "bad log level", values: map[string]string{"log.level": "loud"}},
		{name: "bad broker", values: map[string]string{"spring.kafka.bootstrap-servers": "no-port"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnvironment(environment.New(environment.NewLayer("test", tt.values)))
			assert.ErrorContains(t, err, "invalid config")
		})
	}

	_, err := FromEnvironment(nil)
	assert.Error(t, err)
}
