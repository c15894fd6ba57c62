// Package inspector implements the read-only database introspection
// endpoints and the synthetic data generator. The query gateway does not
// depend on it.
package inspector

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
	"github.com/meterscope/meterscope/core/infrastructure/logging"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// Limits for generated rows and table pages
const (
	MaxGenerateCount    = 100_000
	DefaultGenerateSize = 10_000
	DefaultPageSize     = 50
	MaxPageSize         = 1_000
	MaxPage             = 1_000_000
)

// Options configures an Inspector
type Options struct {
	// CacheTTL bounds how long stats and schema results are reused. Zero
	// disables caching.
	CacheTTL time.Duration
	Now      func() time.Time
}

// Inspector answers introspection requests against the pool set
type Inspector struct {
	pools  interfaces.PoolSet
	public config.PublicDatabase
	cache  *resultCache
	now    func() time.Time
}

// New creates an Inspector
func New(pools interfaces.PoolSet, public config.PublicDatabase, opts Options) *Inspector {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Inspector{
		pools:  pools,
		public: public,
		cache:  newResultCache(opts.CacheTTL),
		now:    now,
	}
}

// Close releases the result cache
func (i *Inspector) Close() {
	i.cache.close()
}

func (i *Inspector) query(ctx context.Context, database domain.Database, sql string, args ...any) (*domain.RowSet, error) {
	conn, err := i.pools.Resolve(database)
	if err != nil {
		return nil, err
	}
	rs, err := conn.Execute(ctx, sql, args...)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.ExecutionFailed(err)
	}
	if rs.Rows == nil {
		rs.Rows = []map[string]any{}
	}
	return rs, nil
}

// TestConnection probes the rdb and tsdb pools in parallel. Failures are
// reported in the result, never returned.
func (i *Inspector) TestConnection(ctx context.Context) *ConnectionStatus {
	log := logging.New("inspector")

	targets := []domain.Database{domain.DatabaseRelational, domain.DatabaseTimeSeries}
	checks := make([]PoolCheck, len(targets))

	var wg sync.WaitGroup
	for idx, db := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs, err := i.query(ctx, db, pingSQL)
			if err != nil {
				log.Warnf("Connection test for %s failed: %v", db, err)
				checks[idx] = PoolCheck{Status: StatusError, Error: errorMessage(err)}
				return
			}
			latency := rs.Elapsed.Milliseconds()
			checks[idx] = PoolCheck{Status: StatusConnected, LatencyMs: &latency}
		}()
	}
	wg.Wait()

	rdb, tsdb := checks[0], checks[1]
	connected := rdb.Status == StatusConnected && tsdb.Status == StatusConnected

	status := &ConnectionStatus{
		Success:    connected,
		Connected:  connected,
		RdbStatus:  rdb.Status,
		TsdbStatus: tsdb.Status,
		Latency:    map[string]int64{},
	}
	for idx, check := range checks {
		name := targets[idx].String()
		if check.LatencyMs != nil {
			status.Latency[name] = *check.LatencyMs
		}
		if check.Error != "" {
			if status.Errors == nil {
				status.Errors = map[string]string{}
			}
			status.Errors[name] = check.Error
		}
	}
	if connected {
		status.Message = "KWDB connection succeeded"
	} else {
		status.Message = "some database connections failed"
	}
	return status
}

// Config returns the non-secret connection settings
func (i *Inspector) Config() config.PublicDatabase {
	return i.public
}

// Stats lists tables and row counts of rdb and tsdb
func (i *Inspector) Stats(ctx context.Context) (*Stats, error) {
	return cached(i.cache, "stats", func() (*Stats, int64, error) {
		var rdbTables, rdbCounts, tsdbTables, tsdbCounts *domain.RowSet

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			rdbCounts, err = i.query(gctx, domain.DatabaseRelational, rdbCountsSQL)
			return err
		})
		g.Go(func() (err error) {
			tsdbCounts, err = i.query(gctx, domain.DatabaseTimeSeries, tsdbCountsSQL)
			return err
		})
		g.Go(func() (err error) {
			rdbTables, err = i.query(gctx, domain.DatabaseRelational, listTablesSQL)
			return err
		})
		g.Go(func() (err error) {
			tsdbTables, err = i.query(gctx, domain.DatabaseTimeSeries, listTablesSQL)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}

		stats := &Stats{
			Rdb:       DatabaseTables{Tables: rdbTables.Rows, Counts: rdbCounts.Rows},
			Tsdb:      DatabaseTables{Tables: tsdbTables.Rows, Counts: tsdbCounts.Rows},
			Timestamp: i.now().UTC(),
		}
		cost := estimateRowsCost(rdbTables.Rows) + estimateRowsCost(rdbCounts.Rows) +
			estimateRowsCost(tsdbTables.Rows) + estimateRowsCost(tsdbCounts.Rows)
		return stats, cost, nil
	})
}

// Schema describes the tables of rdb, tsdb, or both for mixed
func (i *Inspector) Schema(ctx context.Context, database domain.Database) ([]TableSchema, error) {
	var targets []domain.Database
	switch database {
	case domain.DatabaseRelational, domain.DatabaseTimeSeries:
		targets = []domain.Database{database}
	case domain.DatabaseMixed:
		targets = []domain.Database{domain.DatabaseRelational, domain.DatabaseTimeSeries}
	default:
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"invalid database name, only rdb, tsdb or mixed are supported", nil)
	}

	results := make([][]TableSchema, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for idx, db := range targets {
		g.Go(func() error {
			tables, err := i.schemaFor(gctx, db)
			if err != nil {
				return err
			}
			results[idx] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make([]TableSchema, 0)
	for _, tables := range results {
		combined = append(combined, tables...)
	}
	return combined, nil
}

func (i *Inspector) schemaFor(ctx context.Context, database domain.Database) ([]TableSchema, error) {
	return cached(i.cache, "schema:"+database.String(), func() ([]TableSchema, int64, error) {
		log := logging.New("inspector").With("database", database.String())

		tablesRS, err := i.query(ctx, database, listTablesSQL)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load %s schema: %w", database, err)
		}
		log.Debugf("Found %d table(s)", len(tablesRS.Rows))

		tables := make([]TableSchema, 0, len(tablesRS.Rows))
		var cost int64
		for _, row := range tablesRS.Rows {
			name := stringValue(row["table_name"])
			tableType := stringValue(row["table_type"])
			if tableType == "" {
				tableType = "BASE TABLE"
			}

			// A table whose columns cannot be read is still listed.
			columns := []Column{}
			colsRS, err := i.query(ctx, database, listColumnsSQL, name)
			if err != nil {
				log.Warnf("Failed to read columns of %s: %v", name, err)
			} else {
				for _, col := range colsRS.Rows {
					columns = append(columns, Column{
						Name:     stringValue(col["column_name"]),
						Type:     stringValue(col["data_type"]),
						Nullable: stringValue(col["is_nullable"]) == "YES",
						Default:  col["column_default"],
					})
				}
				cost += estimateRowsCost(colsRS.Rows)
			}

			tables = append(tables, TableSchema{
				TableName:   name,
				TableType:   tableType,
				Database:    database,
				Columns:     columns,
				ColumnCount: len(columns),
			})
		}
		return tables, cost + estimateRowsCost(tablesRS.Rows), nil
	})
}

// ImportStatus reports row counts and cross-store integrity checks
func (i *Inspector) ImportStatus(ctx context.Context) (*ImportStatus, error) {
	var rdbCounts, tsdbCounts, integrity *domain.RowSet

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rdbCounts, err = i.query(gctx, domain.DatabaseRelational, rdbCountsSQL)
		return err
	})
	g.Go(func() (err error) {
		tsdbCounts, err = i.query(gctx, domain.DatabaseTimeSeries, tsdbCountsSQL)
		return err
	})
	g.Go(func() (err error) {
		integrity, err = i.query(gctx, domain.DatabaseRelational, integritySQL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hasRdb := true
	for _, row := range rdbCounts.Rows {
		if n, _ := int64Value(row["row_count"]); n <= 0 {
			hasRdb = false
			break
		}
	}
	hasTsdb := false
	if len(tsdbCounts.Rows) > 0 {
		n, _ := int64Value(tsdbCounts.Rows[0]["row_count"])
		hasTsdb = n > 0
	}

	return &ImportStatus{
		Rdb:            rdbCounts.Rows,
		Tsdb:           tsdbCounts.Rows,
		Integrity:      integrity.Rows,
		Timestamp:      i.now().UTC(),
		ImportComplete: hasRdb && hasTsdb,
		HasRdbData:     hasRdb,
		HasTsdbData:    hasTsdb,
	}, nil
}

// Info reports the server version, table counts and connectivity
func (i *Inspector) Info(ctx context.Context) (*Info, error) {
	var versionRS, rdbRS, tsdbRS *domain.RowSet
	var status *ConnectionStatus

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		versionRS, err = i.query(gctx, domain.DatabaseRelational, versionSQL)
		return err
	})
	g.Go(func() (err error) {
		rdbRS, err = i.query(gctx, domain.DatabaseRelational, tableCountSQL, domain.DatabaseRelational.String())
		return err
	})
	g.Go(func() (err error) {
		tsdbRS, err = i.query(gctx, domain.DatabaseTimeSeries, tableCountSQL, domain.DatabaseTimeSeries.String())
		return err
	})
	g.Go(func() error {
		status = i.TestConnection(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	version := "Unknown"
	if len(versionRS.Rows) > 0 {
		if v := stringValue(versionRS.Rows[0]["version"]); v != "" {
			version = v
		}
	}

	databases := make([]map[string]any, 0, len(rdbRS.Rows)+len(tsdbRS.Rows))
	databases = append(databases, rdbRS.Rows...)
	databases = append(databases, tsdbRS.Rows...)

	return &Info{
		Version:   version,
		Databases: databases,
		Connections: Connections{
			Rdb:     status.RdbStatus,
			Tsdb:    status.TsdbStatus,
			Latency: status.Latency,
		},
		Timestamp: i.now().UTC(),
	}, nil
}

// GenerateData inserts count synthetic readings into tsdb.meter_data
func (i *Inspector) GenerateData(ctx context.Context, count int) (*GenerateResult, error) {
	if count < 1 || count > MaxGenerateCount {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("count must be between 1 and %d", MaxGenerateCount), nil)
	}

	log := logging.New("inspector")
	log.Infof("Generating %d synthetic reading(s)", count)

	rs, err := i.query(ctx, domain.DatabaseTimeSeries, generateDataSQL, count)
	if err != nil {
		log.Errorf("Synthetic data generation failed: %v", err)
		return nil, err
	}
	i.cache.clear()

	affected := rs.Affected
	if affected == 0 {
		affected = int64(count)
	}
	return &GenerateResult{Count: count, AffectedRows: affected}, nil
}

// TableData returns one page of rows from database.table. page starts at 1.
func (i *Inspector) TableData(ctx context.Context, database domain.Database, table string, page, pageSize int) (*TablePage, error) {
	if database != domain.DatabaseRelational && database != domain.DatabaseTimeSeries {
		return nil, apperrors.UnknownDatabase(database.String())
	}
	if table == "" {
		return nil, apperrors.MissingParameter("table")
	}
	page = min(max(page, 1), MaxPage)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)
	offset := (page - 1) * pageSize

	qualified := pq.QuoteIdentifier(database.String()) + "." + pq.QuoteIdentifier(table)

	var records, total *domain.RowSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		records, err = i.query(gctx, database,
			"SELECT * FROM "+qualified+" LIMIT $1 OFFSET $2", pageSize, offset)
		return err
	})
	g.Go(func() (err error) {
		total, err = i.query(gctx, database, "SELECT COUNT(*) as total FROM "+qualified)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var count int64
	if len(total.Rows) > 0 {
		count, _ = int64Value(total.Rows[0]["total"])
	}

	return &TablePage{
		Records: records.Rows,
		Pagination: Pagination{
			Current:  page,
			PageSize: pageSize,
			Total:    count,
		},
	}, nil
}

// Meters lists up to 100 meters for parameter pickers
func (i *Inspector) Meters(ctx context.Context) ([]map[string]any, error) {
	rs, err := i.query(ctx, domain.DatabaseRelational, metersSQL)
	if err != nil {
		return nil, err
	}
	return rs.Rows, nil
}

// Areas lists all areas ordered by name
func (i *Inspector) Areas(ctx context.Context) ([]map[string]any, error) {
	rs, err := i.query(ctx, domain.DatabaseRelational, areasSQL)
	if err != nil {
		return nil, err
	}
	return rs.Rows, nil
}

func errorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// int64Value accepts the numeric shapes drivers use for COUNT(*).
func int64Value(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
