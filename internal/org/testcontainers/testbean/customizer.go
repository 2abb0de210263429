// Package testbean resolves container-derived properties declared on a test
// class and installs them into the application's environment before the
// application is built.
//
// A test registers its static fields together with markers:
//
//	var ports = &MyPorts{RandomPort: 4321}
//
//	var MyTest = testbean.NewClass("MyTest").
//		Field("ports", testbean.Static(&ports), testbean.Properties("thePort=randomPort"))
//
// Bootstrap then scans the class, evaluates each declaration against the
// field's current value and installs the result as the "testcontainers"
// layer, ahead of every other layer.
package testbean

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

// ContextCustomizer adjusts an environment before the application context
// is built from it.
type ContextCustomizer interface {
	CustomizeContext(ctx context.Context, env *environment.Environment) error
}

// ContextCustomizerFunc adapts a function to ContextCustomizer.
type ContextCustomizerFunc func(ctx context.Context, env *environment.Environment) error

func (f ContextCustomizerFunc) CustomizeContext(ctx context.Context, env *environment.Environment) error {
	return f(ctx, env)
}

// ContextCustomizerFactory creates the customizer for a test class.
type ContextCustomizerFactory interface {
	CreateContextCustomizer(class *Class) ContextCustomizer
}

// PropertiesCustomizerFactory creates customizers that run the
// scan, extract and install pipeline for a class.
type PropertiesCustomizerFactory struct {
	Logger logrus.FieldLogger
}

func NewPropertiesCustomizerFactory(logger logrus.FieldLogger) *PropertiesCustomizerFactory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PropertiesCustomizerFactory{Logger: logger}
}

func (f *PropertiesCustomizerFactory) CreateContextCustomizer(class *Class) ContextCustomizer {
	logger := f.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &propertiesCustomizer{class: class, logger: logger}
}

type propertiesCustomizer struct {
	class  *Class
	logger logrus.FieldLogger
}

func (c *propertiesCustomizer) CustomizeContext(ctx context.Context, env *environment.Environment) error {
	bindings, err := Scan(c.class)
	if err != nil {
		return err
	}
	set, err := Extract(ctx, bindings)
	if err != nil {
		return err
	}
	layer, err := Install(env, set)
	if err != nil {
		return err
	}

	log := c.logger.WithFields(logrus.Fields{"class": c.class.Name, "source": layer.Name()})
	for _, p := range set {
		log.Debugf("resolved %s", p)
	}
	log.Debugf("installed %d properties", layer.Len())
	return nil
}

// Bootstrap builds the environment for class. base holds the application's
// own layers in precedence order; each factory's customizer then runs in
// order. Without factories the properties pipeline is used.
func Bootstrap(ctx context.Context, class *Class, base []*environment.Layer, factories ...ContextCustomizerFactory) (*environment.Environment, error) {
	if class == nil {
		return nil, fmt.Errorf("bootstrap: %w: nil class", ErrInvalidClass)
	}
	if len(factories) == 0 {
		factories = []ContextCustomizerFactory{NewPropertiesCustomizerFactory(nil)}
	}

	env := environment.New(base...)
	for _, f := range factories {
		if err := f.CreateContextCustomizer(class).CustomizeContext(ctx, env); err != nil {
			return nil, fmt.Errorf("bootstrap %s: %w", class.Name, err)
		}
	}
	return env, nil
}

// BootstrapRegistered looks name up in r and bootstraps it.
func BootstrapRegistered(ctx context.Context, r *Registry, name string, base []*environment.Layer, factories ...ContextCustomizerFactory) (*environment.Environment, error) {
	class, err := r.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return Bootstrap(ctx, class, base, factories...)
}
