// Package runtime owns the server lifecycle: telemetry, dependencies, the
// HTTP listener and graceful shutdown.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/infrastructure/di"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	transporthttp "github.com/meterscope/meterscope/core/infrastructure/transport/http"
	"github.com/meterscope/meterscope/core/observability"
)

// Option customizes a Runtime
type Option func(*Runtime)

// WithVersion sets the version reported to telemetry
func WithVersion(version string) Option {
	return func(r *Runtime) {
		r.version = version
	}
}

// Runtime represents the meterscope server
type Runtime struct {
	cfg       config.Config
	version   string
	container *di.Container
	server    *transporthttp.Server
	providers *observability.Providers
}

// NewRuntime installs telemetry and builds the dependency container
func NewRuntime(ctx context.Context, cfg config.Config, opts ...Option) (*Runtime, error) {
	r := &Runtime{cfg: cfg, version: "dev"}
	for _, opt := range opts {
		opt(r)
	}

	providers, err := observability.Setup(ctx, r.version)
	if err != nil {
		return nil, logging.WithTag("observability", fmt.Errorf("failed to set up telemetry: %w", err))
	}
	r.providers = providers

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}
	r.container = container

	r.server = transporthttp.NewServer(transporthttp.ServerOptions{
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.AllowedOrigins(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	transporthttp.RegisterRoutes(r.server.Router(), transporthttp.Dependencies{
		Gateway:   container.Gateway,
		Inspector: container.Inspector,
		RateLimit: transporthttp.RateLimitOptions{
			Limiter:  container.Limiter,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		StaticDir: cfg.Server.StaticDir,
		BaseURL:   fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	})

	return r, nil
}

// Handler exposes the routed handler
func (r *Runtime) Handler() http.Handler {
	return r.server.Router()
}

// Container exposes the wired dependencies
func (r *Runtime) Container() *di.Container {
	return r.container
}

// Start starts the server and blocks until SIGTERM/SIGINT
func (r *Runtime) Start() error {
	if err := r.StartAsync(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	sig := <-quit
	logging.New("runtime").Infof("Received %s", sig)

	return r.Stop()
}

// StartAsync starts the server without blocking
func (r *Runtime) StartAsync() error {
	return r.server.Start()
}

// Stop stops the HTTP server, then closes the pools and flushes telemetry
func (r *Runtime) Stop() error {
	log := logging.New("runtime")
	log.Infof("Shutting down server...")

	var errs []error
	if err := r.server.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := r.container.Close(); err != nil {
		log.Warnf("Errors closing resources: %v", err)
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := r.providers.Shutdown(ctx); err != nil {
		log.Warnf("Errors flushing telemetry: %v", err)
	}

	log.Debugf("Shutdown complete")
	return errors.Join(errs...)
}
