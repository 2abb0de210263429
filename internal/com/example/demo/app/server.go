// Package app is the demo application: a tiny key/value HTTP service backed
// by Redis.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/znsio/testbean-properties-go/internal/com/example/demo/config"
	"github.com/znsio/testbean-properties-go/internal/com/example/demo/events"
)

const maxValueSize = 1 << 20

// Notifier is told about every stored value.
type Notifier interface {
	ValueChanged(ctx context.Context, key, value string) error
}

type Server struct {
	store    Store
	notifier Notifier
	logger   logrus.FieldLogger
	router   *gin.Engine
}

func NewServer(store Store, notifier Notifier, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{store: store, notifier: notifier, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.GET("/health", s.health)
	r.GET("/:key", s.getValue)
	r.PUT("/:key", s.putValue)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (s *Server) getValue(c *gin.Context) {
	key := c.Param("key")
	v, err := s.store.Get(c.Request.Context(), key)
	if errors.Is(err, ErrNotFound) {
		c.String(http.StatusNotFound, "")
		return
	}
	if err != nil {
		s.logger.WithError(err).Errorf("get %s", key)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.String(http.StatusOK, v)
}

func (s *Server) putValue(c *gin.Context) {
	key := c.Param("key")
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxValueSize+1))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if len(body) > maxValueSize {
		c.String(http.StatusRequestEntityTooLarge, "value too large")
		return
	}

	value := string(body)
	if err := s.store.Set(c.Request.Context(), key, value); err != nil {
		s.logger.WithError(err).Errorf("put %s", key)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	if s.notifier != nil {
		if err := s.notifier.ValueChanged(c.Request.Context(), key, value); err != nil {
			s.logger.WithError(err).Warnf("value of %s stored but not published", key)
		}
	}
	c.Status(http.StatusOK)
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}

// Application is the server plus the resources it owns.
type Application struct {
	*Server
	Config *config.Config

	closers []io.Closer
}

// Build wires the application from cfg.
func Build(cfg *config.Config, logger logrus.FieldLogger) *Application {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	store := NewRedisStore(cfg.RedisAddr())
	a := &Application{Config: cfg, closers: []io.Closer{store}}

	var notifier Notifier
	if cfg.KafkaEnabled() {
		p := events.NewKafkaPublisher(cfg.KafkaBootstrapServers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, p)
		notifier = p
	}
	a.Server = NewServer(store, notifier, logger)
	return a
}

// Run serves on the configured port until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.ServerAddr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("Listening and serving HTTP on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
