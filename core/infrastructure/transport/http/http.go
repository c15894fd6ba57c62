package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/meterscope/meterscope/core/infrastructure/logging"
	httpmiddleware "github.com/meterscope/meterscope/core/infrastructure/transport/http/middleware"
)

// ServerOptions configures the HTTP server
type ServerOptions struct {
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	port            int
	shutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with the common middleware stack
func NewServer(opts ServerOptions) *Server {
	if opts.Port == 0 {
		opts.Port = 3001
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.Tracing)
	r.Use(httpmiddleware.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return &Server{
		router:          r,
		port:            opts.Port,
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return ":" + strconv.Itoa(s.port)
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	log := logging.New("http")
	log.Infof("Starting HTTP server on port %d", s.port)

	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return logging.WithTag("http", err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Successf("API server listening on http://localhost:%d/api/", s.port)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	log := logging.New("http")
	log.Infof("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
		if closeErr := s.server.Close(); closeErr != nil {
			log.Errorf("Error force closing HTTP server: %v", closeErr)
		}
		return err
	}

	log.Infof("HTTP server stopped")
	return nil
}
