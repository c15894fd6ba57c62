// Package mocks provides testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/domain/interfaces"
)

// MockConnector is a mock implementation of interfaces.Connector.
// Execute receives the variadic args as a single []any argument.
type MockConnector struct {
	mock.Mock
}

// NewMockConnector creates a MockConnector whose expectations are asserted
// on test cleanup.
func NewMockConnector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConnector {
	m := &MockConnector{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockConnector) Execute(ctx context.Context, statement string, args ...any) (*domain.RowSet, error) {
	if args == nil {
		args = []any{}
	}
	ret := m.Called(ctx, statement, args)

	var rs *domain.RowSet
	if fn, ok := ret.Get(0).(func(context.Context, string, []any) *domain.RowSet); ok {
		rs = fn(ctx, statement, args)
	} else if ret.Get(0) != nil {
		rs = ret.Get(0).(*domain.RowSet)
	}
	return rs, ret.Error(1)
}

func (m *MockConnector) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConnector) Close() error {
	return m.Called().Error(0)
}

// MockPoolSet is a mock implementation of interfaces.PoolSet.
type MockPoolSet struct {
	mock.Mock
}

// NewMockPoolSet creates a MockPoolSet whose expectations are asserted on
// test cleanup.
func NewMockPoolSet(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPoolSet {
	m := &MockPoolSet{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPoolSet) Resolve(database domain.Database) (interfaces.Connector, error) {
	ret := m.Called(database)
	var conn interfaces.Connector
	if ret.Get(0) != nil {
		conn = ret.Get(0).(interfaces.Connector)
	}
	return conn, ret.Error(1)
}

func (m *MockPoolSet) CloseAll() error {
	return m.Called().Error(0)
}

// Rows builds a RowSet from literal rows.
func Rows(rows ...map[string]any) *domain.RowSet {
	set := &domain.RowSet{Rows: rows}
	if set.Rows == nil {
		set.Rows = []map[string]any{}
	}
	if len(rows) > 0 {
		for col := range rows[0] {
			set.Columns = append(set.Columns, col)
		}
	}
	return set
}

// MockGateway is a mock implementation of interfaces.Gateway.
type MockGateway struct {
	mock.Mock
}

// NewMockGateway creates a MockGateway whose expectations are asserted on
// test cleanup.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) ExecuteScenario(ctx context.Context, key string, parameters map[string]any) (*domain.QueryResult, error) {
	ret := m.Called(ctx, key, parameters)
	var result *domain.QueryResult
	if ret.Get(0) != nil {
		result = ret.Get(0).(*domain.QueryResult)
	}
	return result, ret.Error(1)
}

func (m *MockGateway) ExecuteCustom(ctx context.Context, sql string, database domain.Database, parameters []any) (*domain.QueryResult, error) {
	ret := m.Called(ctx, sql, database, parameters)
	var result *domain.QueryResult
	if ret.Get(0) != nil {
		result = ret.Get(0).(*domain.QueryResult)
	}
	return result, ret.Error(1)
}

func (m *MockGateway) History(limit int) []domain.ExecutionRecord {
	ret := m.Called(limit)
	records, _ := ret.Get(0).([]domain.ExecutionRecord)
	return records
}

func (m *MockGateway) Scenarios() []domain.ScenarioSummary {
	ret := m.Called()
	summaries, _ := ret.Get(0).([]domain.ScenarioSummary)
	return summaries
}
