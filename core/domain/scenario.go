package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Database names a logical connection target.
type Database string

const (
	DatabaseRelational Database = "rdb"
	DatabaseTimeSeries Database = "tsdb"
	DatabaseMixed      Database = "mixed"
	// DatabaseDefault is the physical database behind mixed queries.
	DatabaseDefault Database = "defaultdb"
)

// IsScenarioTarget reports whether d may be declared by a scenario.
func (d Database) IsScenarioTarget() bool {
	switch d {
	case DatabaseRelational, DatabaseTimeSeries, DatabaseMixed:
		return true
	}
	return false
}

// IsKnown reports whether d names one of the logical targets.
func (d Database) IsKnown() bool {
	return d.IsScenarioTarget() || d == DatabaseDefault
}

func (d Database) String() string {
	return string(d)
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// Scenario is a named, pre-authored parameterized SQL query.
type Scenario struct {
	Key         string   `json:"key" yaml:"key"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Database    Database `json:"database" yaml:"database"`
	SQL         string   `json:"sql" yaml:"sql"`
	Parameters  []string `json:"parameters" yaml:"parameters"`
}

// ScenarioSummary is the public metadata of a scenario.
type ScenarioSummary struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Database    Database `json:"database"`
	Parameters  []string `json:"parameters"`
}

// ScenarioRef identifies the scenario a result came from.
type ScenarioRef struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Database    Database `json:"database"`
}

// Summary returns the public metadata of s.
func (s *Scenario) Summary() ScenarioSummary {
	params := make([]string, len(s.Parameters))
	copy(params, s.Parameters)
	return ScenarioSummary{
		Key:         s.Key,
		Name:        s.Name,
		Description: s.Description,
		Database:    s.Database,
		Parameters:  params,
	}
}

// Ref returns the result-envelope reference for s.
func (s *Scenario) Ref() *ScenarioRef {
	return &ScenarioRef{
		Key:         s.Key,
		Name:        s.Name,
		Description: s.Description,
		Database:    s.Database,
	}
}

// PlaceholderCount returns the highest positional placeholder index in the
// template, so "$1 ... $1 ... $2" counts as 2.
func PlaceholderCount(sql string) int {
	highest := 0
	for _, match := range placeholderPattern.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(match[1])
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// Validate checks the structural invariants of a scenario definition.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return ErrInvalidScenarioKey
	}
	if strings.TrimSpace(s.SQL) == "" {
		return &DomainError{Message: fmt.Sprintf("scenario '%s': sql cannot be empty", s.Key)}
	}
	if !s.Database.IsScenarioTarget() {
		return &DomainError{Message: fmt.Sprintf("scenario '%s': unsupported database '%s'", s.Key, s.Database)}
	}
	seen := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		if strings.TrimSpace(p) == "" {
			return &DomainError{Message: fmt.Sprintf("scenario '%s': parameter name cannot be empty", s.Key)}
		}
		if seen[p] {
			return &DomainError{Message: fmt.Sprintf("scenario '%s': duplicate parameter '%s'", s.Key, p)}
		}
		seen[p] = true
	}
	if got := PlaceholderCount(s.SQL); got != len(s.Parameters) {
		return &DomainError{Message: fmt.Sprintf(
			"scenario '%s': %d placeholder(s) in sql but %d parameter(s) declared",
			s.Key, got, len(s.Parameters))}
	}
	return nil
}

// Domain errors
var (
	ErrInvalidScenarioKey = &DomainError{Message: "scenario key cannot be empty"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
