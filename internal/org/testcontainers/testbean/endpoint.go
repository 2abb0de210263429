package testbean

import (
	"context"
	"fmt"
	"net"

	"github.com/docker/go-connections/nat"
	"github.com/sirupsen/logrus"

	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

const (
	RedisPort nat.Port = "6379/tcp"
	KafkaPort nat.Port = "9093/tcp"

	RedisHostKey        = "spring.redis.host"
	RedisPortKey        = "spring.redis.port"
	KafkaBootstrapKey   = "spring.kafka.bootstrap-servers"
	legacyRedisField    = "redis"
	legacyInitializerID = "redisInitializer"
)

// Endpoint is the part of a started container the properties are read
// from. testcontainers.Container satisfies it.
type Endpoint interface {
	Host(ctx context.Context) (string, error)
	MappedPort(ctx context.Context, port nat.Port) (nat.Port, error)
}

func endpointHost(ctx context.Context, e Endpoint) (any, error) {
	host, err := e.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	return host, nil
}

func endpointPort(port nat.Port) func(ctx context.Context, e Endpoint) (any, error) {
	return func(ctx context.Context, e Endpoint) (any, error) {
		mapped, err := e.MappedPort(ctx, port)
		if err != nil {
			return nil, fmt.Errorf("mapped port %s: %w", port, err)
		}
		return mapped.Port(), nil
	}
}

// EndpointProperties declares prefix.host and prefix.port for a container
// field, the port being the one mapped to the container's internal port.
func EndpointProperties(prefix string, port nat.Port) Marker {
	return Mark(
		Typed(prefix+".host", endpointHost),
		Typed(prefix+".port", endpointPort(port)),
	)
}

// RedisProperties is the default marker for a Redis container field:
// spring.redis.host and spring.redis.port.
func RedisProperties() Marker {
	return EndpointProperties("spring.redis", RedisPort)
}

// KafkaProperties declares spring.kafka.bootstrap-servers as host:port of
// the container's external listener.
func KafkaProperties() Marker {
	return Mark(Typed(KafkaBootstrapKey, func(ctx context.Context, e Endpoint) (any, error) {
		host, err := e.Host(ctx)
		if err != nil {
			return nil, fmt.Errorf("container host: %w", err)
		}
		mapped, err := e.MappedPort(ctx, KafkaPort)
		if err != nil {
			return nil, fmt.Errorf("mapped port %s: %w", KafkaPort, err)
		}
		return net.JoinHostPort(host, mapped.Port()), nil
	}))
}

// RedisInitializer installs spring.redis.host and spring.redis.port for
// redis without any class registration.
func RedisInitializer(redis Endpoint) ContextCustomizer {
	class := NewClass(legacyInitializerID).
		Field(legacyRedisField, func() any { return redis }, RedisProperties())
	return &propertiesCustomizer{class: class, logger: logrus.StandardLogger()}
}

// TestContext is what an ExecutionListener sees of a running test class.
type TestContext struct {
	Class       *Class
	Environment *environment.Environment
}

// ExecutionListener wires the Redis container declared as field "redis" on
// the test class's parent class into the environment before the class
// runs. Only BeforeTestClass does any work.
type ExecutionListener struct {
	Logger logrus.FieldLogger
}

func (l *ExecutionListener) BeforeTestClass(ctx context.Context, tc *TestContext) error {
	if tc == nil || tc.Class == nil || tc.Class.Parent == nil {
		return fmt.Errorf("%w: listener needs a test class with a parent", ErrInvalidClass)
	}
	parent := tc.Class.Parent

	var binding *Binding
	for _, f := range parent.Fields {
		if f.Name == legacyRedisField {
			binding = &Binding{Owner: parent.Name, Field: Field{Name: f.Name, Get: f.Get, Marker: RedisProperties()}}
			break
		}
	}
	if binding == nil {
		return &FieldError{Owner: parent.Name, Field: legacyRedisField, Err: fmt.Errorf("%w: no such field", ErrFieldAccess)}
	}

	set, err := Extract(ctx, []Binding{*binding})
	if err != nil {
		return err
	}
	if _, err := Install(tc.Environment, set); err != nil {
		return err
	}

	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithField("class", tc.Class.Name).Debugf("installed %v", set.Strings())
	return nil
}

func (l *ExecutionListener) PrepareTestInstance(context.Context, *TestContext) error { return nil }
func (l *ExecutionListener) BeforeTestMethod(context.Context, *TestContext) error { return nil }
func (l *ExecutionListener) AfterTestMethod(context.Context, *TestContext) error { return nil }
func (l *ExecutionListener) AfterTestClass(context.Context, *TestContext) error { return nil }
