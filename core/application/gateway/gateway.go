// Package gateway is the single entry point for user-driven SQL execution.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	"github.com/meterscope/meterscope/core/observability"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// Options configures a Gateway
type Options struct {
	HistoryCapacity int
	// Now overrides the clock used for history timestamps.
	Now func() time.Time
}

// Gateway dispatches scenarios and ad-hoc statements onto the pool set
type Gateway struct {
	catalog interfaces.ScenarioCatalog
	pools   interfaces.PoolSet
	history *History
	now     func() time.Time
}

var _ interfaces.Gateway = (*Gateway)(nil)

// New creates a Gateway owning a fresh history buffer
func New(catalog interfaces.ScenarioCatalog, pools interfaces.PoolSet, opts Options) *Gateway {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gateway{
		catalog: catalog,
		pools:   pools,
		history: NewHistory(opts.HistoryCapacity),
		now:     now,
	}
}

// ExecuteScenario runs the catalog entry key, binding parameters positionally
// in declaration order.
func (g *Gateway) ExecuteScenario(ctx context.Context, key string, parameters map[string]any) (*domain.QueryResult, error) {
	log := logging.New("gateway").With("scenario", key)

	scenario, err := g.catalog.Get(key)
	if err != nil {
		log.Warnf("Scenario lookup failed: %v", err)
		return nil, err
	}

	args, err := bindParameters(scenario.Parameters, parameters)
	if err != nil {
		log.Warnf("Parameter binding failed: %v", err)
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "gateway.execute_scenario",
		attribute.String(observability.AttrScenarioKey, scenario.Key),
		attribute.String(observability.AttrDatabase, scenario.Database.String()),
	)
	defer span.End()

	log.Infof("Executing scenario on %s", scenario.Database)
	result, err := g.run(ctx, scenario.SQL, scenario.Database, args)
	observability.RecordQueryExecution(ctx, scenario.Key, scenario.Database.String(), err == nil, elapsedMs(result))
	recordExecution(domain.ExecutionScenario, scenario.Database, result, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logFailure(log, "Scenario execution failed", err)
		return nil, err
	}

	result.Scenario = scenario.Ref()
	g.history.Add(domain.ExecutionRecord{
		ID:              uuid.NewString(),
		Timestamp:       g.now(),
		Type:            domain.ExecutionScenario,
		ScenarioKey:     scenario.Key,
		ScenarioName:    scenario.Name,
		SQL:             result.ResolvedSQL,
		Database:        scenario.Database,
		RowCount:        result.RowCount,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	log.Debugf("Scenario returned %d row(s) in %dms", result.RowCount, result.ExecutionTimeMs)
	return result, nil
}

// ExecuteCustom runs an ad-hoc read-only statement. An empty database means
// rdb.
func (g *Gateway) ExecuteCustom(ctx context.Context, sql string, database domain.Database, parameters []any) (*domain.QueryResult, error) {
	log := logging.New("gateway")

	statement, err := ValidateReadOnly(sql)
	if err != nil {
		log.Warnf("Rejected custom statement: %v", err)
		return nil, err
	}
	if database == "" {
		database = domain.DatabaseRelational
	}
	if !database.IsKnown() {
		log.Warn("Rejected custom statement for unknown database")
		return nil, apperrors.UnknownDatabase(database.String())
	}

	ctx, span := observability.StartSpan(ctx, "gateway.execute_custom",
		attribute.String(observability.AttrDatabase, database.String()),
	)
	defer span.End()

	log.Infof("Executing custom statement on %s", database)
	result, err := g.run(ctx, statement, database, parameters)
	observability.RecordQueryExecution(ctx, string(domain.ExecutionCustom), database.String(), err == nil, elapsedMs(result))
	recordExecution(domain.ExecutionCustom, database, result, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logFailure(log, "Custom execution failed", err)
		return nil, err
	}

	g.history.Add(domain.ExecutionRecord{
		ID:              uuid.NewString(),
		Timestamp:       g.now(),
		Type:            domain.ExecutionCustom,
		SQL:             result.ResolvedSQL,
		Database:        database,
		RowCount:        result.RowCount,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	return result, nil
}

// History returns up to limit recent executions, newest first
func (g *Gateway) History(limit int) []domain.ExecutionRecord {
	return g.history.Recent(limit)
}

// Scenarios lists the catalog in insertion order
func (g *Gateway) Scenarios() []domain.ScenarioSummary {
	return g.catalog.List()
}

func (g *Gateway) run(ctx context.Context, statement string, database domain.Database, args []any) (*domain.QueryResult, error) {
	conn, err := g.pools.Resolve(database)
	if err != nil {
		return nil, err
	}

	rs, err := conn.Execute(ctx, statement, args...)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.ExecutionFailed(err)
	}

	rows := rs.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	return &domain.QueryResult{
		Rows:            rows,
		RowCount:        len(rows),
		ExecutionTimeMs: rs.Elapsed.Milliseconds(),
		ResolvedSQL:     strings.TrimSpace(statement),
		Params:          args,
		Database:        database,
	}, nil
}

// bindParameters orders values by the declared names. A nil value counts as
// missing.
func bindParameters(names []string, values map[string]any) ([]any, error) {
	args := make([]any, 0, len(names))
	for _, name := range names {
		v, ok := values[name]
		if !ok || v == nil {
			return nil, apperrors.MissingParameter(name)
		}
		args = append(args, v)
	}
	return args, nil
}

// logFailure keeps caller mistakes out of the error log.
func logFailure(log logging.Logger, msg string, err error) {
	if apperrors.IsValidationError(err) {
		log.Warnf("%s: %v", msg, err)
		return
	}
	log.Errorf("%s: %v", msg, err)
}

func elapsedMs(result *domain.QueryResult) float64 {
	if result == nil {
		return 0
	}
	return float64(result.ExecutionTimeMs)
}
