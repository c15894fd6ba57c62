package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meterscope/meterscope/core/application/inspector"
	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/dto"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/middleware"
)

// DatabaseHandler serves /api/database
type DatabaseHandler struct {
	*handlers.BaseHandler
	inspector DatabaseInspector
}

// NewDatabaseHandler creates a DatabaseHandler
func NewDatabaseHandler(inspector DatabaseInspector) *DatabaseHandler {
	return &DatabaseHandler{
		BaseHandler: handlers.NewBaseHandler("handler:database"),
		inspector:   inspector,
	}
}

// Status reports pool connectivity
func (h *DatabaseHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, h.inspector.TestConnection(r.Context()), nil)
}

// Test probes both pools and summarizes the outcome in the message
func (h *DatabaseHandler) Test(w http.ResponseWriter, r *http.Request) {
	status := h.inspector.TestConnection(r.Context())
	message := "Database connection test succeeded"
	if !status.Connected {
		message = "Database connection test failed"
	}
	h.WriteSuccessMessage(w, status, message)
}

// Config returns the non-secret connection settings
func (h *DatabaseHandler) Config(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, h.inspector.Config(), nil)
}

func (h *DatabaseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inspector.Stats(r.Context())
	if err != nil {
		h.WriteError(w, err, "Failed to get database stats")
		return
	}
	h.WriteSuccess(w, stats, nil)
}

func (h *DatabaseHandler) Schema(w http.ResponseWriter, r *http.Request) {
	database := domain.Database(chi.URLParam(r, "database"))
	tables, err := h.inspector.Schema(r.Context(), database)
	if err != nil {
		h.WriteError(w, err, "Failed to get database schema")
		return
	}
	h.WriteSuccess(w, tables, nil)
}

func (h *DatabaseHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.inspector.ImportStatus(r.Context())
	if err != nil {
		h.WriteError(w, err, "Failed to get import status")
		return
	}
	h.WriteSuccess(w, status, nil)
}

func (h *DatabaseHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.inspector.Info(r.Context())
	if err != nil {
		h.WriteError(w, err, "Failed to get database info")
		return
	}
	h.WriteSuccess(w, info, nil)
}

// GenerateData inserts synthetic meter readings into tsdb
func (h *DatabaseHandler) GenerateData(w http.ResponseWriter, r *http.Request, req *dto.GenerateDataRequest) {
	count := inspector.DefaultGenerateSize
	if req.Count != nil {
		count = *req.Count
	}

	result, err := h.inspector.GenerateData(r.Context(), count)
	if err != nil {
		h.WriteError(w, err, "Failed to generate test data")
		return
	}
	h.WriteSuccessMessage(w, result, fmt.Sprintf("Generated %d rows of test data", result.Count))
}

// TableData pages through one table
func (h *DatabaseHandler) TableData(w http.ResponseWriter, r *http.Request) {
	q := parseTableDataQuery(r)
	page, err := h.inspector.TableData(r.Context(),
		domain.Database(chi.URLParam(r, "database")), chi.URLParam(r, "table"), q.Page, q.PageSize)
	if err != nil {
		h.WriteError(w, err, "Failed to get table data")
		return
	}
	h.WriteSuccess(w, page, nil)
}

// parseTableDataQuery reads page and pageSize, defaulting absent values.
// Unparseable values become 0 so validation rejects them.
func parseTableDataQuery(r *http.Request) dto.TableDataQuery {
	q := dto.TableDataQuery{Page: 1, PageSize: inspector.DefaultPageSize}
	values := r.URL.Query()
	if raw := values.Get("page"); raw != "" {
		q.Page, _ = strconv.Atoi(raw)
	}
	if raw := values.Get("pageSize"); raw != "" {
		q.PageSize, _ = strconv.Atoi(raw)
	}
	return q
}

func validateTableDataQuery(r *http.Request) error {
	q := parseTableDataQuery(r)
	if fields := middleware.ValidateStruct(&q); fields != nil {
		for _, name := range []string{"Page", "PageSize"} {
			if tag, ok := fields[name]; ok {
				return fmt.Errorf("%s failed '%s'", name, tag)
			}
		}
	}
	return nil
}
