package dto

import (
	"time"

	"github.com/meterscope/meterscope/core/domain"
)

// ExecuteScenarioRequest is the body of POST /api/query/execute/{key}
type ExecuteScenarioRequest struct {
	Parameters map[string]any `json:"parameters"`
}

// CustomQueryRequest is the body of POST /api/query/custom. Emptiness of SQL
// and the database name are checked by the gateway.
type CustomQueryRequest struct {
	SQL        string `json:"sql"`
	Database   string `json:"database" validate:"omitempty,max=32"`
	Parameters []any  `json:"parameters" validate:"max=100"`
}

// ScenarioMeta describes a scenario execution
type ScenarioMeta struct {
	Scenario      *domain.ScenarioRef `json:"scenario"`
	RowCount      int                 `json:"rowCount"`
	ExecutionTime int64               `json:"executionTime"`
	TotalTime     int64               `json:"totalTime"`
	SQL           string              `json:"sql"`
	Timestamp     time.Time           `json:"timestamp"`
}

// CustomMeta describes an ad-hoc execution
type CustomMeta struct {
	RowCount      int             `json:"rowCount"`
	ExecutionTime int64           `json:"executionTime"`
	TotalTime     int64           `json:"totalTime"`
	SQL           string          `json:"sql"`
	Database      domain.Database `json:"database"`
	Timestamp     time.Time       `json:"timestamp"`
}
