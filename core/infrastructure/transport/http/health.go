package http

import (
	"net/http"
	"time"

	"github.com/meterscope/meterscope/core/infrastructure/transport/http/dto"
	"github.com/meterscope/meterscope/core/infrastructure/transport/http/handlers"
)

// HealthHandler serves /api/health
type HealthHandler struct {
	*handlers.BaseHandler
	inspector DatabaseInspector
	now       func() time.Time
}

func NewHealthHandler(inspector DatabaseInspector, now func() time.Time) *HealthHandler {
	return &HealthHandler{
		BaseHandler: handlers.NewBaseHandler("handler:health"),
		inspector:   inspector,
		now:         now,
	}
}

// Health reports liveness with the current database status. The process is
// healthy even when a pool is down; the database field carries the detail.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, dto.HealthResponse{
		Success:   true,
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		Database:  h.inspector.TestConnection(r.Context()),
	})
}
