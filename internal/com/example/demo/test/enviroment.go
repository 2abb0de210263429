package test

import (
	"context"
	"net/http/httptest"

	"github.com/testcontainers/testcontainers-go"
	"github.com/znsio/testbean-properties-go/internal/com/example/demo/app"
	"github.com/znsio/testbean-properties-go/internal/com/example/demo/config"
	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

type TestEnvironment struct {
	Ctx             context.Context
	DemoTestNetwork *testcontainers.DockerNetwork
	RedisContainer  testcontainers.Container
	Environment     *environment.Environment
	Config          *config.Config
	Application     *app.Application
	AppServer       *httptest.Server
}
