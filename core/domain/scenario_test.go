package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderCount(t *testing.T) {
	tests := []struct {
		sql  string
		want int
	}{
		{"SELECT 1", 0},
		{"SELECT * FROM m WHERE id = $1", 1},
		{"SELECT * FROM m WHERE a = $1 OR b = $1", 1},
		{"SELECT * FROM m WHERE a = $2 AND b = $1", 2},
		{"SELECT $10", 10},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceholderCount(tt.sql))
		})
	}
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "valid without parameters",
			scenario: Scenario{Key: "a", Database: DatabaseRelational, SQL: "SELECT 1"},
		},
		{
			name:     "valid with parameter",
			scenario: Scenario{Key: "a", Database: DatabaseTimeSeries, SQL: "SELECT $1", Parameters: []string{"meter_id"}},
		},
		{
			name:     "empty key",
			scenario: Scenario{Database: DatabaseRelational, SQL: "SELECT 1"},
			wantErr:  "scenario key cannot be empty",
		},
		{
			name:     "empty sql",
			scenario: Scenario{Key: "a", Database: DatabaseRelational, SQL: "  "},
			wantErr:  "sql cannot be empty",
		},
		{
			name:     "defaultdb is not a scenario target",
			scenario: Scenario{Key: "a", Database: DatabaseDefault, SQL: "SELECT 1"},
			wantErr:  "unsupported database 'defaultdb'",
		},
		{
			name:     "placeholder mismatch",
			scenario: Scenario{Key: "a", Database: DatabaseMixed, SQL: "SELECT $1, $2", Parameters: []string{"x"}},
			wantErr:  "2 placeholder(s) in sql but 1 parameter(s) declared",
		},
		{
			name:     "duplicate parameter",
			scenario: Scenario{Key: "a", Database: DatabaseMixed, SQL: "SELECT $1, $2", Parameters: []string{"x", "x"}},
			wantErr:  "duplicate parameter 'x'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScenario_SummaryCopiesParameters(t *testing.T) {
	s := &Scenario{Key: "k", Parameters: []string{"meter_id"}}
	summary := s.Summary()
	summary.Parameters[0] = "changed"

	assert.Equal(t, "meter_id", s.Parameters[0])
}

func TestDatabase_IsKnown(t *testing.T) {
	for _, d := range []Database{DatabaseRelational, DatabaseTimeSeries, DatabaseMixed, DatabaseDefault} {
		assert.True(t, d.IsKnown(), d)
	}
	for _, d := range []Database{"", "warehouse", "RDB"} {
		assert.False(t, d.IsKnown(), d)
	}
	assert.False(t, DatabaseDefault.IsScenarioTarget())
}
