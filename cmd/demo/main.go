package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/znsio/testbean-properties-go/internal/com/example/demo/app"
	"github.com/znsio/testbean-properties-go/internal/com/example/demo/config"
	"github.com/znsio/testbean-properties-go/internal/org/testcontainers/environment"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *logrus.Logger) error {
	layers := []*environment.Layer{environment.System()}
	if _, err := os.Stat(".env"); err == nil {
		dotenv, err := environment.Dotenv("dotenv", ".env")
		if err != nil {
			return err
		}
		layers = append(layers, dotenv)
	}

	cfg, err := config.FromEnvironment(environment.New(layers...))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.Build(cfg, logger)
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warnf("close: %v", err)
		}
	}()

	if err := application.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
