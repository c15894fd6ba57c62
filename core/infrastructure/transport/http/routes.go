package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meterscope/meterscope/core/application/inspector"
	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/middleware"
)

// DatabaseInspector is what the database routes need from the inspector
type DatabaseInspector interface {
	TestConnection(ctx context.Context) *inspector.ConnectionStatus
	Config() config.PublicDatabase
	Stats(ctx context.Context) (*inspector.Stats, error)
	Schema(ctx context.Context, database domain.Database) ([]inspector.TableSchema, error)
	ImportStatus(ctx context.Context) (*inspector.ImportStatus, error)
	Info(ctx context.Context) (*inspector.Info, error)
	GenerateData(ctx context.Context, count int) (*inspector.GenerateResult, error)
	TableData(ctx context.Context, database domain.Database, table string, page, pageSize int) (*inspector.TablePage, error)
	Meters(ctx context.Context) ([]map[string]any, error)
	Areas(ctx context.Context) ([]map[string]any, error)
}

// RateLimitOptions enables per-IP limiting of the query routes
type RateLimitOptions struct {
	Limiter  middleware.RateLimiter
	Requests int
	Window   time.Duration
}

// Dependencies are the collaborators injected into the route handlers
type Dependencies struct {
	Gateway   interfaces.Gateway
	Inspector DatabaseInspector
	// RateLimit is optional; a nil Limiter disables limiting.
	RateLimit RateLimitOptions
	StaticDir string
	BaseURL   string
	Now       func() time.Time
}

// RegisterRoutes registers all HTTP routes
func RegisterRoutes(r chi.Router, deps Dependencies) {
	log := logging.New("routes")
	log.Infof("Registering HTTP routes")

	if deps.Now == nil {
		deps.Now = time.Now
	}

	query := NewQueryHandler(deps.Gateway, deps.Inspector, deps.Now)
	database := NewDatabaseHandler(deps.Inspector)
	health := NewHealthHandler(deps.Inspector, deps.Now)
	docs := NewDocsHandler(deps.Gateway, deps.BaseURL)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Get("/docs", docs.OpenAPI)

		r.Route("/query", func(r chi.Router) {
			if deps.RateLimit.Limiter != nil && deps.RateLimit.Requests > 0 {
				log.Infof("Rate limiting query routes to %d per %s", deps.RateLimit.Requests, deps.RateLimit.Window)
				r.Use(middleware.RateLimitByIP(deps.RateLimit.Limiter, deps.RateLimit.Requests, deps.RateLimit.Window))
			}
			r.Get("/scenarios", query.Scenarios)
			r.Post("/execute/{scenarioKey}", middleware.ValidateJSON(query.ExecuteScenario))
			r.Post("/custom", middleware.ValidateJSON(query.ExecuteCustom))
			r.Get("/history", query.History)
			r.Get("/meters", query.Meters)
			r.Get("/areas", query.Areas)
		})

		r.Route("/database", func(r chi.Router) {
			r.Get("/status", database.Status)
			r.Get("/config", database.Config)
			r.Post("/test", database.Test)
			r.Get("/stats", database.Stats)
			r.Get("/schema/{database}", database.Schema)
			r.Get("/import-status", database.ImportStatus)
			r.Get("/info", database.Info)
			r.Post("/generate-data", middleware.ValidateJSON(database.GenerateData))
			r.With(middleware.ValidateQueryParams(validateTableDataQuery)).
				Get("/table-data/{database}/{table}", database.TableData)
		})

		r.NotFound(routeNotFound)
	})

	r.Handle("/metrics", middleware.MetricsHandler())

	r.NotFound(NewStaticHandler(deps.StaticDir).ServeHTTP)

	log.Debugf("Routes registered under /api, static dir %q", deps.StaticDir)
}

func routeNotFound(w http.ResponseWriter, _ *http.Request) {
	handlers.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"}, nil)
}
