package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meterscope/meterscope/core/application/inspector"
	"github.com/meterscope/meterscope/core/config"
	"github.com/meterscope/meterscope/core/domain"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
	"github.com/meterscope/meterscope/core/shared/mocks"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type mockInspector struct {
	mock.Mock
}

func newMockInspector(t *testing.T) *mockInspector {
	m := &mockInspector{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockInspector) TestConnection(ctx context.Context) *inspector.ConnectionStatus {
	return m.Called(ctx).Get(0).(*inspector.ConnectionStatus)
}

func (m *mockInspector) Config() config.PublicDatabase {
	return m.Called().Get(0).(config.PublicDatabase)
}

func (m *mockInspector) Stats(ctx context.Context) (*inspector.Stats, error) {
	ret := m.Called(ctx)
	stats, _ := ret.Get(0).(*inspector.Stats)
	return stats, ret.Error(1)
}

func (m *mockInspector) Schema(ctx context.Context, database domain.Database) ([]inspector.TableSchema, error) {
	ret := m.Called(ctx, database)
	tables, _ := ret.Get(0).([]inspector.TableSchema)
	return tables, ret.Error(1)
}

func (m *mockInspector) ImportStatus(ctx context.Context) (*inspector.ImportStatus, error) {
	ret := m.Called(ctx)
	status, _ := ret.Get(0).(*inspector.ImportStatus)
	return status, ret.Error(1)
}

func (m *mockInspector) Info(ctx context.Context) (*inspector.Info, error) {
	ret := m.Called(ctx)
	info, _ := ret.Get(0).(*inspector.Info)
	return info, ret.Error(1)
}

func (m *mockInspector) GenerateData(ctx context.Context, count int) (*inspector.GenerateResult, error) {
	ret := m.Called(ctx, count)
	result, _ := ret.Get(0).(*inspector.GenerateResult)
	return result, ret.Error(1)
}

func (m *mockInspector) TableData(ctx context.Context, database domain.Database, table string, page, pageSize int) (*inspector.TablePage, error) {
	ret := m.Called(ctx, database, table, page, pageSize)
	result, _ := ret.Get(0).(*inspector.TablePage)
	return result, ret.Error(1)
}

func (m *mockInspector) Meters(ctx context.Context) ([]map[string]any, error) {
	ret := m.Called(ctx)
	rows, _ := ret.Get(0).([]map[string]any)
	return rows, ret.Error(1)
}

func (m *mockInspector) Areas(ctx context.Context) ([]map[string]any, error) {
	ret := m.Called(ctx)
	rows, _ := ret.Get(0).([]map[string]any)
	return rows, ret.Error(1)
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

type fixture struct {
	gateway   *mocks.MockGateway
	inspector *mockInspector
	server    *Server
}

func newFixture(t *testing.T, customize ...func(*Dependencies)) *fixture {
	t.Helper()
	f := &fixture{
		gateway:   mocks.NewMockGateway(t),
		inspector: newMockInspector(t),
		server: NewServer(ServerOptions{
			AllowedOrigins: []string{"http://localhost:5173"},
		}),
	}
	deps := Dependencies{
		Gateway:   f.gateway,
		Inspector: f.inspector,
		BaseURL:   "http://localhost:3001",
		Now:       func() time.Time { return fixedNow },
	}
	for _, fn := range customize {
		fn(&deps)
	}
	RegisterRoutes(f.server.Router(), deps)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestScenarios(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("Scenarios").Return([]domain.ScenarioSummary{
		{Key: "faultyMeters", Name: "Faulty meters", Database: domain.DatabaseRelational, Parameters: []string{}},
	})

	rec, body := f.do(t, http.MethodGet, "/api/query/scenarios", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "faultyMeters", data[0].(map[string]any)["key"])
}

func TestExecuteScenario_Success(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ExecuteScenario", mock.Anything, "meterTrend24h", map[string]any{"meter_id": "M1"}).
		Return(&domain.QueryResult{
			Rows:            []map[string]any{{"power": 1.5}},
			RowCount:        1,
			ExecutionTimeMs: 7,
			ResolvedSQL:     "SELECT 1",
			Database:        domain.DatabaseTimeSeries,
			Scenario:        &domain.ScenarioRef{Key: "meterTrend24h", Name: "Trend", Database: domain.DatabaseTimeSeries},
		}, nil)

	rec, body := f.do(t, http.MethodPost, "/api/query/execute/meterTrend24h", `{"parameters":{"meter_id":"M1"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["rowCount"])
	assert.Equal(t, float64(7), meta["executionTime"])
	assert.Equal(t, float64(0), meta["totalTime"])
	assert.Equal(t, "SELECT 1", meta["sql"])
	assert.Equal(t, "meterTrend24h", meta["scenario"].(map[string]any)["key"])
}

func TestExecuteScenario_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown scenario", apperrors.ScenarioNotFound("nope"), http.StatusNotFound, "SCENARIO_NOT_FOUND"},
		{"missing parameter", apperrors.MissingParameter("meter_id"), http.StatusBadRequest, "MISSING_PARAMETER"},
		{"driver failure", apperrors.ExecutionFailed(assert.AnError), http.StatusInternalServerError, "EXECUTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gateway.On("ExecuteScenario", mock.Anything, "nope", mock.Anything).Return(nil, tt.err)

			rec, body := f.do(t, http.MethodPost, "/api/query/execute/nope", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestExecuteCustom(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ExecuteCustom", mock.Anything, "SELECT $1", domain.DatabaseTimeSeries, []any{float64(1)}).
		Return(&domain.QueryResult{
			Rows:        []map[string]any{{"?column?": 1}},
			RowCount:    1,
			ResolvedSQL: "SELECT $1",
			Database:    domain.DatabaseTimeSeries,
		}, nil)

	rec, body := f.do(t, http.MethodPost, "/api/query/custom", `{"sql":"SELECT $1","database":"tsdb","parameters":[1]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "tsdb", meta["database"])
	assert.NotContains(t, meta, "scenario")
}

func TestExecuteCustom_Rejected(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("ExecuteCustom", mock.Anything, "DELETE FROM x", domain.Database(""), []any(nil)).
		Return(nil, apperrors.NewAppError(apperrors.ErrCodeStatementNotAllowed, "only read-only statements are allowed", nil))

	rec, body := f.do(t, http.MethodPost, "/api/query/custom", `{"sql":"DELETE FROM x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "STATEMENT_NOT_ALLOWED", body["code"])
}

func TestExecuteCustom_InvalidJSON(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/query/custom", `{"sql":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	f.gateway.AssertNotCalled(t, "ExecuteCustom", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("History", 5).Return([]domain.ExecutionRecord{{ID: "a"}})
	f.gateway.On("History", 0).Return([]domain.ExecutionRecord{})

	rec, body := f.do(t, http.MethodGet, "/api/query/history?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, _ = f.do(t, http.MethodGet, "/api/query/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/api/query/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestMetersAndAreas(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("Meters", mock.Anything).Return([]map[string]any{{"meter_id": "M1"}}, nil)
	f.inspector.On("Areas", mock.Anything).Return(nil, apperrors.ExecutionFailed(assert.AnError))

	rec, body := f.do(t, http.MethodGet, "/api/query/meters", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, body = f.do(t, http.MethodGet, "/api/query/areas", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to list areas", body["message"])
}

func TestQueryRateLimit(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) {
		d.RateLimit = RateLimitOptions{Limiter: denyLimiter{}, Requests: 1, Window: time.Minute}
	})

	rec, _ := f.do(t, http.MethodGet, "/api/query/scenarios", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestDatabaseStatusAndTest(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("TestConnection", mock.Anything).Return(&inspector.ConnectionStatus{
		Success:    true,
		Connected:  false,
		RdbStatus:  inspector.StatusConnected,
		TsdbStatus: inspector.StatusError,
	})

	rec, body := f.do(t, http.MethodGet, "/api/database/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", body["data"].(map[string]any)["tsdbStatus"])

	rec, body = f.do(t, http.MethodPost, "/api/database/test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Database connection test failed", body["message"])
}

func TestDatabaseConfig(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("Config").Return(config.PublicDatabase{
		Host:      "localhost",
		Port:      26257,
		User:      "root",
		Databases: []domain.Database{"rdb", "tsdb", "defaultdb"},
	})

	rec, body := f.do(t, http.MethodGet, "/api/database/config", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.NotContains(t, data, "password")
}

func TestDatabaseSchema(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("Schema", mock.Anything, domain.DatabaseTimeSeries).
		Return([]inspector.TableSchema{{TableName: "meter_data", Database: domain.DatabaseTimeSeries}}, nil)
	f.inspector.On("Schema", mock.Anything, domain.Database("nope")).
		Return(nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "unsupported database 'nope'", nil))

	rec, body := f.do(t, http.MethodGet, "/api/database/schema/tsdb", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, _ = f.do(t, http.MethodGet, "/api/database/schema/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatabaseOverviewRoutes(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("Stats", mock.Anything).Return(&inspector.Stats{Timestamp: fixedNow}, nil)
	f.inspector.On("ImportStatus", mock.Anything).Return(&inspector.ImportStatus{ImportComplete: true}, nil)
	f.inspector.On("Info", mock.Anything).Return(nil, apperrors.ExecutionFailed(assert.AnError))

	rec, _ := f.do(t, http.MethodGet, "/api/database/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodGet, "/api/database/import-status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]any)["importComplete"])

	rec, _ = f.do(t, http.MethodGet, "/api/database/info", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGenerateData(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		status    int
	}{
		{"default count", "", inspector.DefaultGenerateSize, http.StatusOK},
		{"explicit count", `{"count":25}`, 25, http.StatusOK},
		{"zero rejected", `{"count":0}`, 0, http.StatusBadRequest},
		{"too many rejected", `{"count":100001}`, 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.status == http.StatusOK {
				f.inspector.On("GenerateData", mock.Anything, tt.wantCount).
					Return(&inspector.GenerateResult{Count: tt.wantCount, AffectedRows: int64(tt.wantCount)}, nil)
			}

			rec, body := f.do(t, http.MethodPost, "/api/database/generate-data", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, float64(tt.wantCount), body["data"].(map[string]any)["count"])
			} else {
				f.inspector.AssertNotCalled(t, "GenerateData", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTableData(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("TableData", mock.Anything, domain.DatabaseRelational, "meter_info", 1, inspector.DefaultPageSize).
		Return(&inspector.TablePage{Records: []map[string]any{}, Pagination: inspector.Pagination{Current: 1, PageSize: 50}}, nil)
	f.inspector.On("TableData", mock.Anything, domain.DatabaseTimeSeries, "meter_data", 3, 20).
		Return(&inspector.TablePage{Records: []map[string]any{}, Pagination: inspector.Pagination{Current: 3, PageSize: 20, Total: 100}}, nil)

	rec, _ := f.do(t, http.MethodGet, "/api/database/table-data/rdb/meter_info", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodGet, "/api/database/table-data/tsdb/meter_data?page=3&pageSize=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	pagination := body["data"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(100), pagination["total"])

	for _, query := range []string{"?page=0", "?pageSize=5000", "?page=abc", "?page=1000001", "?page=9223372036854775807"} {
		rec, body = f.do(t, http.MethodGet, "/api/database/table-data/rdb/meter_info"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Equal(t, "INVALID_INPUT", body["code"], query)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.inspector.On("TestConnection", mock.Anything).Return(&inspector.ConnectionStatus{Success: true, Connected: true})

	rec, body := f.do(t, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["timestamp"])
	assert.Equal(t, true, body["database"].(map[string]any)["connected"])
}

func TestDocs(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("Scenarios").Return([]domain.ScenarioSummary{
		{Key: "meterSummary", Name: "Meter summary", Database: domain.DatabaseMixed, Parameters: []string{"meter_id"}},
	})

	rec, body := f.do(t, http.MethodGet, "/api/docs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.0.0", body["openapi"])
	paths := body["paths"].(map[string]any)
	assert.Contains(t, paths, "/api/query/execute/meterSummary")
	assert.Contains(t, paths, "/api/query/custom")
}

func TestUnknownAPIRoute(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/api/nope", "/api/query/nope", "/ws"} {
		rec, body := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "Route not found", body["error"], target)
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	f := newFixture(t, func(d *Dependencies) { d.StaticDir = dir })

	rec, _ := f.do(t, http.MethodGet, "/dashboard/meters", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>app</html>")

	rec, _ = f.do(t, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log(1)")
}

func TestStaticFallback_NoBundle(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/dashboard", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "Client build not found")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/query/scenarios", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGenerateOpenAPISpec_NoScenarios(t *testing.T) {
	specJSON, err := GenerateOpenAPISpec(nil, "http://localhost:3001")
	require.NoError(t, err)
	assert.Contains(t, string(specJSON), "/api/health")
}
