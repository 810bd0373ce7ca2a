// Package api exposes the orchestrator's Tasker and ConfigLoader over
// HTTP, built on gin-gonic/gin.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/configloader"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
	"github.com/fenwicklabs/orchestrator/internal/tasker"
)

func init() {
	conductor.Register(conductor.RoleAPI, "gin", func(bag conductor.Bag) (any, error) {
		t, ok := bag["tasker"].(tasker.Tasker)
		if !ok {
			return nil, fmt.Errorf("api: bag missing \"tasker\": %w", orcerr.ErrConnectorInitFail)
		}
		cfg, ok := bag["configurator"].(configloader.ConfigLoader)
		if !ok {
			return nil, fmt.Errorf("api: bag missing \"configurator\": %w", orcerr.ErrConnectorInitFail)
		}
		return NewServer(t, cfg), nil
	})
}

// Server wires the task, control and service resources over a
// gin.Engine.
type Server struct {
	engine *gin.Engine
	tasker tasker.Tasker
	config configloader.ConfigLoader

	httpServer *http.Server
	shutdown   chan struct{}
}

// NewServer builds a Server and registers its default routes.
func NewServer(t tasker.Tasker, cfg configloader.ConfigLoader) *Server {
	slog.Info("initializing gin API")
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		tasker:   t,
		config:   cfg,
		shutdown: make(chan struct{}),
	}

	engine.GET("/tasks/:task", s.taskGet)
	engine.POST("/tasks/:task", s.taskPost)
	engine.PUT("/tasks/:task", s.taskPut)

	engine.GET("/control/", s.controlGet)
	engine.DELETE("/control/", s.controlDelete)

	engine.GET("/service", s.serviceGet)
	engine.PATCH("/service", s.servicePatch)
	engine.DELETE("/service", s.serviceDelete)

	slog.Info("gin API initialized")
	return s
}

// Engine exposes the underlying gin.Engine, mainly so tests can drive
// routes with httptest without a bound listener.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP IO loop. It blocks until either the listener
// errors or shutdown is requested through the service DELETE route.
func (s *Server) Start(ctx context.Context) error {
	hostAny, err := s.config.Get(ctx, Host)
	if err != nil {
		return err
	}
	portAny, err := s.config.Get(ctx, Port)
	if err != nil {
		return err
	}
	host, _ := hostAny.(string)
	port, _ := portAny.(int)

	slog.Info("starting API IO loop", "host", host, "port", port)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-s.shutdown:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Run starts the IO loop in a goroutine.
func (s *Server) Run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	return done
}

// GracefulShutdown releases the ConfigLoader and Tasker.
func (s *Server) GracefulShutdown(ctx context.Context) error {
	slog.Info("shutting down API")
	if err := s.config.GracefulShutdown(ctx); err != nil {
		return err
	}
	return s.tasker.GracefulShutdown(ctx)
}

// requestShutdown is called by the Service DELETE handler to unblock
// Start, the Go analogue of werkzeug.server.shutdown.
func (s *Server) requestShutdown() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}
