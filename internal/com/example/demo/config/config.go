package config

import (
	"fmt"
	"net"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

type Config struct {
	ServerPort            string   `env:"SERVER_PORT" envDefault:"8080" validate:"required,numeric"`
	RedisHost             string   `env:"SPRING_REDIS_HOST" envDefault:"localhost" validate:"required"`
	RedisPort             string   `env:"SPRING_REDIS_PORT" envDefault:"6379" validate:"required,numeric"`
	KafkaBootstrapServers []string `env:"SPRING_KAFKA_BOOTSTRAP_SERVERS" envSeparator:"," validate:"omitempty,dive,hostname_port"`
	KafkaTopic            string   `env:"DEMO_KAFKA_TOPIC" envDefault:"value-updates" validate:"required"`
	LogLevel              string   `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnvironment binds the configuration from a layered environment.
// Keys are matched in relaxed form, so a "spring.redis.host" entry sets
// RedisHost.
func FromEnvironment(e *environment.Environment) (*Config, error) {
	if e == nil {
		return nil, fmt.Errorf("nil environment")
	}
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Environment: e.Relaxed()}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, c.RedisPort)
}

func (c *Config) ServerAddr() string {
	return ":" + c.ServerPort
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBootstrapServers) > 0
}
