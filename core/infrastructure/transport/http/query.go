package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/dto"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// QueryHandler serves /api/query
type QueryHandler struct {
	*handlers.BaseHandler
	gateway   interfaces.Gateway
	inspector DatabaseInspector
	now       func() time.Time
}

// NewQueryHandler creates a QueryHandler
func NewQueryHandler(gateway interfaces.Gateway, inspector DatabaseInspector, now func() time.Time) *QueryHandler {
	return &QueryHandler{
		BaseHandler: handlers.NewBaseHandler("handler:query"),
		gateway:     gateway,
		inspector:   inspector,
		now:         now,
	}
}

// Scenarios lists the catalog
func (h *QueryHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, h.gateway.Scenarios(), nil)
}

// ExecuteScenario runs one catalog entry
func (h *QueryHandler) ExecuteScenario(w http.ResponseWriter, r *http.Request, req *dto.ExecuteScenarioRequest) {
	start := h.now()
	key := chi.URLParam(r, "scenarioKey")

	result, err := h.gateway.ExecuteScenario(r.Context(), key, req.Parameters)
	if err != nil {
		h.WriteError(w, err, "Query execution failed")
		return
	}

	h.WriteSuccess(w, result.Rows, dto.ScenarioMeta{
		Scenario:      result.Scenario,
		RowCount:      result.RowCount,
		ExecutionTime: result.ExecutionTimeMs,
		TotalTime:     h.now().Sub(start).Milliseconds(),
		SQL:           result.ResolvedSQL,
		Timestamp:     h.now().UTC(),
	})
}

// ExecuteCustom runs an ad-hoc read-only statement
func (h *QueryHandler) ExecuteCustom(w http.ResponseWriter, r *http.Request, req *dto.CustomQueryRequest) {
	start := h.now()

	result, err := h.gateway.ExecuteCustom(r.Context(), req.SQL, domain.Database(req.Database), req.Parameters)
	if err != nil {
		h.WriteError(w, err, "Custom query failed")
		return
	}

	h.WriteSuccess(w, result.Rows, dto.CustomMeta{
		RowCount:      result.RowCount,
		ExecutionTime: result.ExecutionTimeMs,
		TotalTime:     h.now().Sub(start).Milliseconds(),
		SQL:           result.ResolvedSQL,
		Database:      result.Database,
		Timestamp:     h.now().UTC(),
	})
}

// History returns recent executions, newest first. ?limit caps the count.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.WriteError(w, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "limit must be a non-negative integer", err),
				"Failed to get query history")
			return
		}
		limit = n
	}
	h.WriteSuccess(w, h.gateway.History(limit), nil)
}

// Meters lists meters for parameter pickers
func (h *QueryHandler) Meters(w http.ResponseWriter, r *http.Request) {
	meters, err := h.inspector.Meters(r.Context())
	if err != nil {
		h.WriteError(w, err, "Failed to list meters")
		return
	}
	h.WriteSuccess(w, meters, nil)
}

// Areas lists areas for parameter pickers
func (h *QueryHandler) Areas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.inspector.Areas(r.Context())
	if err != nil {
		h.WriteError(w, err, "Failed to list areas")
		return
	}
	h.WriteSuccess(w, areas, nil)
}
