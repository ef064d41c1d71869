package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test for a rule set.
// It names rules from a Library in evaluation order, supplies facts and
// the initial result, and states expectations over the run outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name for RunWithGolden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Facts is the frozen context for the run.
	Facts map[string]any `yaml:"facts"`

	// Initial seeds the partial result. Optional; defaults to empty.
	Initial map[string]any `yaml:"initial,omitempty"`

	// Rules lists library rule names in evaluation order.
	Rules []string `yaml:"rules"`

	// MaxIterations caps the run. Optional; zero means the engine default.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// ContinueOnError makes failing rules non-fatal for the run.
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`

	// Expect states the expected outcome. Optional; when absent the
	// scenario only requires the run to complete without error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected run outcome.
type ExpectClause struct {
	// Result contains expected final result fields. Subset match: only
	// the specified keys are validated.
	Result map[string]any `yaml:"result,omitempty"`

	// Iterations is the expected total iteration count. Optional;
	// a pointer so that expecting zero iterations is expressible.
	Iterations *int `yaml:"iterations,omitempty"`

	// Error is a substring the run error must contain. Empty means the
	// run must complete without error.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields, catches typos
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("rules list is required and must be non-empty")
	}
	for i, name := range s.Rules {
		if name == "" {
			return fmt.Errorf("rules[%d]: name must be non-empty", i)
		}
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative")
	}
	if s.Expect != nil && s.Expect.Iterations != nil && *s.Expect.Iterations < 0 {
		return fmt.Errorf("expect.iterations must be non-negative")
	}
	return nil
}
