package inspector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/domain"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
	"github.com/meterscope/meterscope/core/shared/mocks"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	inspector *Inspector
	pools     *mocks.MockPoolSet
	rdb       *mocks.MockConnector
	tsdb      *mocks.MockConnector
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		pools: mocks.NewMockPoolSet(t),
		rdb:   mocks.NewMockConnector(t),
		tsdb:  mocks.NewMockConnector(t),
	}
	f.pools.On("Resolve", domain.DatabaseRelational).Return(f.rdb, nil).Maybe()
	f.pools.On("Resolve", domain.DatabaseTimeSeries).Return(f.tsdb, nil).Maybe()
	f.inspector = New(f.pools, config.Default().Public(), Options{
		CacheTTL: ttl,
		Now:      func() time.Time { return fixedNow },
	})
	t.Cleanup(f.inspector.Close)
	return f
}

func TestTestConnection(t *testing.T) {
	t.Run("both connected", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, pingSQL, []any{}).
			Return(&domain.RowSet{Elapsed: 3 * time.Millisecond}, nil).Once()
		f.tsdb.On("Execute", mock.Anything, pingSQL, []any{}).
			Return(&domain.RowSet{Elapsed: 5 * time.Millisecond}, nil).Once()

		status := f.inspector.TestConnection(context.Background())
		assert.True(t, status.Connected)
		assert.True(t, status.Success)
		assert.Equal(t, StatusConnected, status.RdbStatus)
		assert.Equal(t, map[string]int64{"rdb": 3, "tsdb": 5}, status.Latency)
		assert.Empty(t, status.Errors)
	})

	t.Run("tsdb down", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, pingSQL, []any{}).
			Return(&domain.RowSet{Elapsed: time.Millisecond}, nil).Once()
		f.tsdb.On("Execute", mock.Anything, pingSQL, []any{}).
			Return(nil, errors.New("connection refused")).Once()

		status := f.inspector.TestConnection(context.Background())
		assert.False(t, status.Connected)
		assert.Equal(t, StatusConnected, status.RdbStatus)
		assert.Equal(t, StatusError, status.TsdbStatus)
		assert.Equal(t, "connection refused", status.Errors["tsdb"])
		assert.NotContains(t, status.Latency, "tsdb")
	})
}

func TestSchema(t *testing.T) {
	t.Run("invalid database", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.inspector.Schema(context.Background(), domain.DatabaseDefault)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	})

	t.Run("mixed concatenates rdb then tsdb", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, listTablesSQL, []any{}).
			Return(mocks.Rows(map[string]any{"table_name": "meter_info", "table_type": "BASE TABLE"}), nil).Once()
		f.rdb.On("Execute", mock.Anything, listColumnsSQL, []any{"meter_info"}).
			Return(mocks.Rows(
				map[string]any{"column_name": "meter_id", "data_type": "VARCHAR", "is_nullable": "NO", "column_default": nil},
			), nil).Once()
		f.tsdb.On("Execute", mock.Anything, listTablesSQL, []any{}).
			Return(mocks.Rows(map[string]any{"table_name": "meter_data", "table_type": nil}), nil).Once()
		f.tsdb.On("Execute", mock.Anything, listColumnsSQL, []any{"meter_data"}).
			Return(nil, errors.New("permission denied")).Once()

		tables, err := f.inspector.Schema(context.Background(), domain.DatabaseMixed)
		require.NoError(t, err)
		require.Len(t, tables, 2)

		assert.Equal(t, "meter_info", tables[0].TableName)
		assert.Equal(t, domain.DatabaseRelational, tables[0].Database)
		assert.Equal(t, []Column{{Name: "meter_id", Type: "VARCHAR", Nullable: false}}, tables[0].Columns)
		assert.Equal(t, 1, tables[0].ColumnCount)

		assert.Equal(t, "meter_data", tables[1].TableName)
		assert.Equal(t, "BASE TABLE", tables[1].TableType)
		assert.Empty(t, tables[1].Columns)
		assert.Equal(t, 0, tables[1].ColumnCount)
	})

	t.Run("table listing failure", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, listTablesSQL, []any{}).
			Return(nil, errors.New("boom")).Once()

		_, err := f.inspector.Schema(context.Background(), domain.DatabaseRelational)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load rdb schema")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExecutionFailed))
	})
}

func TestStats_IsCached(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.rdb.On("Execute", mock.Anything, rdbCountsSQL, []any{}).
		Return(mocks.Rows(map[string]any{"table_name": "meter_info", "row_count": int64(3)}), nil).Once()
	f.rdb.On("Execute", mock.Anything, listTablesSQL, []any{}).Return(mocks.Rows(), nil).Once()
	f.tsdb.On("Execute", mock.Anything, tsdbCountsSQL, []any{}).
		Return(mocks.Rows(map[string]any{"table_name": "meter_data", "row_count": int64(9)}), nil).Once()
	f.tsdb.On("Execute", mock.Anything, listTablesSQL, []any{}).Return(mocks.Rows(), nil).Once()

	first, err := f.inspector.Stats(context.Background())
	require.NoError(t, err)
	second, err := f.inspector.Stats(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, fixedNow, first.Timestamp)
	assert.Len(t, first.Rdb.Counts, 1)
	f.rdb.AssertNumberOfCalls(t, "Execute", 2)
}

func TestImportStatus(t *testing.T) {
	tests := []struct {
		name         string
		rdbCounts    []any
		tsdbCount    any
		wantComplete bool
		wantRdb      bool
		wantTsdb     bool
	}{
		{"complete", []any{int64(5), int64(2)}, int64(100), true, true, true},
		{"empty rdb table", []any{int64(5), int64(0)}, int64(100), false, false, true},
		{"no readings", []any{int64(1)}, int64(0), false, true, false},
		{"string counts", []any{"4"}, "7", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)

			rdbRows := make([]map[string]any, len(tt.rdbCounts))
			for i, c := range tt.rdbCounts {
				rdbRows[i] = map[string]any{"row_count": c}
			}
			f.rdb.On("Execute", mock.Anything, rdbCountsSQL, []any{}).Return(mocks.Rows(rdbRows...), nil).Once()
			f.tsdb.On("Execute", mock.Anything, tsdbCountsSQL, []any{}).
				Return(mocks.Rows(map[string]any{"row_count": tt.tsdbCount}), nil).Once()
			f.rdb.On("Execute", mock.Anything, integritySQL, []any{}).
				Return(mocks.Rows(map[string]any{"check_type": "orphaned_meters", "count": int64(0)}), nil).Once()

			status, err := f.inspector.ImportStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantComplete, status.ImportComplete)
			assert.Equal(t, tt.wantRdb, status.HasRdbData)
			assert.Equal(t, tt.wantTsdb, status.HasTsdbData)
			assert.Len(t, status.Integrity, 1)
		})
	}
}

func TestInfo(t *testing.T) {
	f := newFixture(t, 0)
	f.rdb.On("Execute", mock.Anything, versionSQL, []any{}).
		Return(mocks.Rows(map[string]any{"version": "KaiwuDB 2.1"}), nil).Once()
	f.rdb.On("Execute", mock.Anything, tableCountSQL, []any{"rdb"}).
		Return(mocks.Rows(map[string]any{"database_name": "rdb", "table_count": int64(4)}), nil).Once()
	f.tsdb.On("Execute", mock.Anything, tableCountSQL, []any{"tsdb"}).
		Return(mocks.Rows(map[string]any{"database_name": "tsdb", "table_count": int64(1)}), nil).Once()
	f.rdb.On("Execute", mock.Anything, pingSQL, []any{}).Return(&domain.RowSet{}, nil).Once()
	f.tsdb.On("Execute", mock.Anything, pingSQL, []any{}).Return(&domain.RowSet{}, nil).Once()

	info, err := f.inspector.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KaiwuDB 2.1", info.Version)
	require.Len(t, info.Databases, 2)
	assert.Equal(t, "rdb", info.Databases[0]["database_name"])
	assert.Equal(t, StatusConnected, info.Connections.Tsdb)
}

func TestGenerateData(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		f := newFixture(t, 0)
		for _, count := range []int{0, -1, MaxGenerateCount + 1} {
			_, err := f.inspector.GenerateData(context.Background(), count)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "count %d", count)
		}
	})

	t.Run("inserts with bound count", func(t *testing.T) {
		f := newFixture(t, 0)
		f.tsdb.On("Execute", mock.Anything, generateDataSQL, []any{250}).
			Return(&domain.RowSet{Affected: 250}, nil).Once()

		res, err := f.inspector.GenerateData(context.Background(), 250)
		require.NoError(t, err)
		assert.Equal(t, &GenerateResult{Count: 250, AffectedRows: 250}, res)
	})

	t.Run("falls back to count when driver reports nothing", func(t *testing.T) {
		f := newFixture(t, 0)
		f.tsdb.On("Execute", mock.Anything, generateDataSQL, []any{10}).Return(&domain.RowSet{}, nil).Once()

		res, err := f.inspector.GenerateData(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), res.AffectedRows)
	})
}

func TestTableData(t *testing.T) {
	t.Run("rejects mixed", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.inspector.TableData(context.Background(), domain.DatabaseMixed, "meter_info", 1, 10)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnknownDatabase))
	})

	t.Run("quotes identifiers and pages", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, `SELECT * FROM "rdb"."meter_info" LIMIT $1 OFFSET $2`, []any{20, 40}).
			Return(mocks.Rows(map[string]any{"meter_id": "M41"}), nil).Once()
		f.rdb.On("Execute", mock.Anything, `SELECT COUNT(*) as total FROM "rdb"."meter_info"`, []any{}).
			Return(mocks.Rows(map[string]any{"total": int64(101)}), nil).Once()

		page, err := f.inspector.TableData(context.Background(), domain.DatabaseRelational, "meter_info", 3, 20)
		require.NoError(t, err)
		assert.Len(t, page.Records, 1)
		assert.Equal(t, Pagination{Current: 3, PageSize: 20, Total: 101}, page.Pagination)
	})

	t.Run("clamps huge pages", func(t *testing.T) {
		f := newFixture(t, 0)
		f.rdb.On("Execute", mock.Anything, `SELECT * FROM "rdb"."meter_info" LIMIT $1 OFFSET $2`,
			[]any{MaxPageSize, (MaxPage - 1) * MaxPageSize}).
			Return(mocks.Rows(), nil).Once()
		f.rdb.On("Execute", mock.Anything, `SELECT COUNT(*) as total FROM "rdb"."meter_info"`, []any{}).
			Return(mocks.Rows(map[string]any{"total": int64(0)}), nil).Once()

		page, err := f.inspector.TableData(context.Background(), domain.DatabaseRelational, "meter_info", math.MaxInt, math.MaxInt)
		require.NoError(t, err)
		assert.Equal(t, MaxPage, page.Pagination.Current)
	})

	t.Run("hostile table name stays an identifier", func(t *testing.T) {
		f := newFixture(t, 0)
		f.tsdb.On("Execute", mock.Anything, `SELECT * FROM "tsdb"."x"";drop table y;--" LIMIT $1 OFFSET $2`, []any{DefaultPageSize, 0}).
			Return(nil, errors.New(`relation does not exist`)).Once()
		f.tsdb.On("Execute", mock.Anything, mock.Anything, []any{}).
			Return(nil, errors.New(`relation does not exist`)).Maybe()

		_, err := f.inspector.TableData(context.Background(), domain.DatabaseTimeSeries, `x";drop table y;--`, 0, 0)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExecutionFailed))
	})
}

func TestMetersAndAreas(t *testing.T) {
	f := newFixture(t, 0)
	f.rdb.On("Execute", mock.Anything, metersSQL, []any{}).
		Return(mocks.Rows(map[string]any{"meter_id": "M1"}), nil).Once()
	f.rdb.On("Execute", mock.Anything, areasSQL, []any{}).Return(nil, errors.New("boom")).Once()

	meters, err := f.inspector.Meters(context.Background())
	require.NoError(t, err)
	assert.Len(t, meters, 1)

	_, err = f.inspector.Areas(context.Background())
	assert.Error(t, err)
}

func TestInt64Value(t *testing.T) {
	for _, v := range []any{int64(3), int32(3), 3, 3.0, "3"} {
		n, ok := int64Value(v)
		assert.True(t, ok)
		assert.Equal(t, int64(3), n)
	}
	_, ok := int64Value(nil)
	assert.False(t, ok)
}
