package interfaces

import (
	"context"

	"github.com/meterscope/meterscope/core/domain"
)

// ScenarioCatalog is the read-only set of named queries
type ScenarioCatalog interface {
	List() []domain.ScenarioSummary
	Get(key string) (*domain.Scenario, error)
}

// Gateway is the single entry point for user-driven SQL execution
type Gateway interface {
	ExecuteScenario(ctx context.Context, key string, parameters map[string]any) (*domain.QueryResult, error)
	ExecuteCustom(ctx context.Context, sql string, database domain.Database, parameters []any) (*domain.QueryResult, error)
	History(limit int) []domain.ExecutionRecord
	Scenarios() []domain.ScenarioSummary
}
