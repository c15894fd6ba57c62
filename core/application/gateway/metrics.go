package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meterscope/meterscope/core/domain"
)

var (
	queryExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterscope",
			Name:      "query_executions_total",
			Help:      "Total number of gateway executions by kind, database and outcome",
		},
		[]string{"kind", "database", "outcome"},
	)

	queryExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meterscope",
			Name:      "query_execution_duration_seconds",
			Help:      "Database execution time of successful gateway executions",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "database"},
	)
)

// unknownDatabaseLabel bounds the database label to the known targets.
const unknownDatabaseLabel = "unknown"

func databaseLabel(database domain.Database) string {
	if !database.IsKnown() {
		return unknownDatabaseLabel
	}
	return database.String()
}

func recordExecution(kind domain.ExecutionType, database domain.Database, result *domain.QueryResult, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	label := databaseLabel(database)
	queryExecutionsTotal.WithLabelValues(string(kind), label, outcome).Inc()
	if result != nil {
		queryExecutionDuration.WithLabelValues(string(kind), label).
			Observe(float64(result.ExecutionTimeMs) / 1000)
	}
}
