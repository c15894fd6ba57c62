package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meterscope/meterscope/core/domain"
)

// scenarioFile is the on-disk layout of an extra scenario file:
//
//	scenarios:
//	  - key: topMeters
//	    name: Top meters
//	    database: tsdb
//	    sql: SELECT ... WHERE meter_id = $1
//	    parameters: [meter_id]
type scenarioFile struct {
	Scenarios []domain.Scenario `yaml:"scenarios"`
}

// ParseYAML decodes scenario definitions without validating them.
func ParseYAML(data []byte) ([]domain.Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario YAML: %w", err)
	}
	return file.Scenarios, nil
}

// LoadFile reads extra scenarios from path.
func LoadFile(path string) ([]domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenarios, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Load builds the built-in catalog, extended with the scenarios in path when
// path is not empty.
func Load(path string) (*Catalog, error) {
	scenarios := Builtin()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, extra...)
	}
	return New(scenarios...)
}
