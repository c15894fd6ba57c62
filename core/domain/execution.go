package domain

import "time"

// ExecutionType distinguishes catalog runs from ad-hoc statements.
type ExecutionType string

const (
	ExecutionScenario ExecutionType = "scenario"
	ExecutionCustom   ExecutionType = "custom"
)

// ExecutionRecord is one entry of the in-memory execution history.
type ExecutionRecord struct {
	ID              string        `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	Type            ExecutionType `json:"type"`
	ScenarioKey     string        `json:"scenarioKey,omitempty"`
	ScenarioName    string        `json:"scenarioName,omitempty"`
	SQL             string        `json:"sql"`
	Database        Database      `json:"database"`
	RowCount        int           `json:"rowCount"`
	ExecutionTimeMs int64         `json:"executionTime"`
}

// QueryResult is the uniform envelope returned by every execution.
type QueryResult struct {
	Rows            []map[string]any `json:"rows"`
	RowCount        int              `json:"rowCount"`
	ExecutionTimeMs int64            `json:"executionTime"`
	ResolvedSQL     string           `json:"sql"`
	Params          []any            `json:"params,omitempty"`
	Database        Database         `json:"database"`
	Scenario        *ScenarioRef     `json:"scenario,omitempty"`
}

// RowSet is what a connector returns for one statement.
type RowSet struct {
	Columns  []string
	Rows     []map[string]any
	Affected int64
	Elapsed  time.Duration
}
