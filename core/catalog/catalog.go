// Package catalog holds the immutable set of named SQL scenarios.
package catalog

import (
	"fmt"

	"github.com/meterscope/meterscope/core/domain"
	apperrors "github.com/meterscope/meterscope/core/shared/errors"
)

// Catalog is an ordered, read-only scenario registry. It is built once and
// never mutated, so concurrent lookups need no locking.
type Catalog struct {
	order []string
	byKey map[string]*domain.Scenario
}

// New builds a catalog from definitions, keeping their order.
func New(scenarios ...domain.Scenario) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(scenarios)),
		byKey: make(map[string]*domain.Scenario, len(scenarios)),
	}
	for i := range scenarios {
		s := scenarios[i]
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byKey[s.Key]; exists {
			return nil, fmt.Errorf("duplicate scenario key '%s'", s.Key)
		}
		s.Parameters = append([]string(nil), s.Parameters...)
		c.order = append(c.order, s.Key)
		c.byKey[s.Key] = &s
	}
	return c, nil
}

// Default returns the built-in smart-meter catalog.
func Default() *Catalog {
	c, err := New(Builtin()...)
	if err != nil {
		// Built-in definitions are static.
		panic(err)
	}
	return c
}

// List returns the public metadata of every scenario in insertion order.
func (c *Catalog) List() []domain.ScenarioSummary {
	out := make([]domain.ScenarioSummary, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key].Summary())
	}
	return out
}

// Get returns the full definition for key.
func (c *Catalog) Get(key string) (*domain.Scenario, error) {
	s, ok := c.byKey[key]
	if !ok {
		return nil, apperrors.ScenarioNotFound(key)
	}
	copied := *s
	copied.Parameters = append([]string(nil), s.Parameters...)
	return &copied, nil
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.order)
}
