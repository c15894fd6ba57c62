package inspector

import (
	"time"

	"github.com/meterscope/meterscope/core/domain"
)

// Connection status values
const (
	StatusConnected = "connected"
	StatusError     = "error"
)

// PoolCheck is the result of probing one pool
type PoolCheck struct {
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latency,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ConnectionStatus summarizes connectivity of the rdb and tsdb pools
type ConnectionStatus struct {
	Success    bool              `json:"success"`
	Connected  bool              `json:"connected"`
	RdbStatus  string            `json:"rdbStatus"`
	TsdbStatus string            `json:"tsdbStatus"`
	Latency    map[string]int64  `json:"latency"`
	Errors     map[string]string `json:"errors,omitempty"`
	Message    string            `json:"message"`
}

// DatabaseTables lists tables and row counts of one database
type DatabaseTables struct {
	Tables []map[string]any `json:"tables"`
	Counts []map[string]any `json:"counts"`
}

// Stats is the per-database table overview
type Stats struct {
	Rdb       DatabaseTables `json:"rdb"`
	Tsdb      DatabaseTables `json:"tsdb"`
	Timestamp time.Time      `json:"timestamp"`
}

// Column describes one table column
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  any    `json:"default"`
}

// TableSchema describes one table and its columns
type TableSchema struct {
	TableName   string          `json:"table_name"`
	TableType   string          `json:"table_type"`
	Database    domain.Database `json:"database"`
	Columns     []Column        `json:"columns"`
	ColumnCount int             `json:"column_count"`
}

// ImportStatus reports whether the sample data set has been loaded
type ImportStatus struct {
	Rdb            []map[string]any `json:"rdb"`
	Tsdb           []map[string]any `json:"tsdb"`
	Integrity      []map[string]any `json:"integrity"`
	Timestamp      time.Time        `json:"timestamp"`
	ImportComplete bool             `json:"importComplete"`
	HasRdbData     bool             `json:"hasRdbData"`
	HasTsdbData    bool             `json:"hasTsdbData"`
}

// Connections is the connectivity part of Info
type Connections struct {
	Rdb     string           `json:"rdb"`
	Tsdb    string           `json:"tsdb"`
	Latency map[string]int64 `json:"latency"`
}

// Info reports server version and table counts
type Info struct {
	Version     string           `json:"version"`
	Databases   []map[string]any `json:"databases"`
	Connections Connections      `json:"connections"`
	Timestamp   time.Time        `json:"timestamp"`
}

// GenerateResult reports a synthetic data insert
type GenerateResult struct {
	Count        int   `json:"count"`
	AffectedRows int64 `json:"affected_rows"`
}

// Pagination describes a page of table data
type Pagination struct {
	Current  int   `json:"current"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// TablePage is a page of rows from one table
type TablePage struct {
	Records    []map[string]any `json:"records"`
	Pagination Pagination       `json:"pagination"`
}
