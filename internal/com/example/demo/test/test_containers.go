package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tidwall/gjson"

	"github.com/znsio/testbean-properties-go/internal/com/example/demo/app"
	"github.com/znsio/testbean-properties-go/internal/com/example/demo/config"
	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/testbean"
)

const RedisImage = "redis:7-alpine"

func StartRedis(t *testing.T, env *TestEnvironment) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{string(testbean.RedisPort)},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	}
	if env.DemoTestNetwork != nil {
		req.Networks = []string{env.DemoTestNetwork.Name}
		req.NetworkAliases = map[string][]string{env.DemoTestNetwork.Name: {"redis"}}
	}

	redisC, err := testcontainers.GenericContainer(env.Ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("error starting redis container: %v", err)
	}

	t.Log("Redis container started")
	return redisC, nil
}

// StartApplication bootstraps the environment for class, binds the
// configuration from it and serves the application on a random port.
func StartApplication(t *testing.T, env *TestEnvironment, class *testbean.Class, factories ...testbean.ContextCustomizerFactory) error {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	if len(factories) == 0 {
		factories = []testbean.ContextCustomizerFactory{testbean.NewPropertiesCustomizerFactory(logger)}
	}

	base := []*environment.Layer{
		environment.NewLayer("application", map[string]string{"server.port": "0"}),
	}
	e, err := testbean.Bootstrap(env.Ctx, class, base, factories...)
	if err != nil {
		return fmt.Errorf("error bootstrapping environment: %w", err)
	}
	env.Environment = e

	cfg, err := config.FromEnvironment(e)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	env.Config = cfg

	env.Application = app.Build(cfg, logger)
	env.AppServer = httptest.NewServer(env.Application.Handler())
	t.Logf("Application listening on %s (redis %s)", env.AppServer.URL, cfg.RedisAddr())
	return nil
}

func StopApplication(t *testing.T, env *TestEnvironment) {
	if env.AppServer != nil {
		env.AppServer.Close()
		env.AppServer = nil
	}
	if env.Application != nil {
		if err := env.Application.Close(); err != nil {
			t.Logf("Failed to close application: %v", err)
		}
		env.Application = nil
	}
}

func PutValue(env *TestEnvironment, key, value string) error {
	client := resty.New()

	resp, err := client.R().
		SetHeader("Content-Type", "text/plain").
		SetBody(value).
		Put(fmt.Sprintf("%s/%s", env.AppServer.URL, key))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("put %s: unexpected status %d: %s", key, resp.StatusCode(), resp.String())
	}
	return nil
}

func GetValue(env *TestEnvironment, key string) (string, error) {
	client := resty.New()

	resp, err := client.R().
		Get(fmt.Sprintf("%s/%s", env.AppServer.URL, key))
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("get %s: unexpected status %d", key, resp.StatusCode())
	}
	return resp.String(), nil
}

func VerifyHealth(env *TestEnvironment) error {
	client := resty.New()

	resp, err := client.R().
		SetHeader("Accept", "application/json").
		Get(env.AppServer.URL + "/health")
	if err != nil {
		return err
	}

	if status := gjson.GetBytes(resp.Body(), "status").String(); status != "UP" {
		return fmt.Errorf("health check failed: status %q, error %s", status, gjson.GetBytes(resp.Body(), "error").String())
	}
	return nil
}
