package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted run against a fresh ledger.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup steps must all succeed; they establish initial state.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence, each step optionally checked by Expect.
	Flow []Step `yaml:"flow"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one method of the adapter.
type Step struct {
	// Invoke is a movement method (issue, transfer, ...) or createAsset.
	Invoke string `yaml:"invoke"`

	// Args is the request, encoded to JSON before dispatch.
	Args map[string]any `yaml:"args"`

	// Expect checks the step's outcome. Nil means no check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Status is succeeded, failed or rejected.
	Status string `yaml:"status"`

	// Code is the business error name, checked when Status is failed.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is balance, history_count or history_order.
	Type string `yaml:"type"`

	Owner  string `yaml:"owner,omitempty"`
	Asset  string `yaml:"asset,omitempty"`
	Equals string `yaml:"equals,omitempty"`

	Count int `yaml:"count,omitempty"`

	Types []string `yaml:"types,omitempty"`
}

// Assertion type constants.
const (
	AssertBalance      = "balance"
	AssertHistoryCount = "history_count"
	AssertHistoryOrder = "history_order"
)

// Step status constants.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
)

// InvokeCreateAsset registers an asset; args are {id, type}.
const InvokeCreateAsset = "createAsset"

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
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
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range append(append([]Step{}, s.Setup...), s.Flow...) {
		if step.Invoke == "" {
			return fmt.Errorf("step %d: invoke is required", i)
		}
		if step.Expect == nil {
			continue
		}
		switch step.Expect.Status {
		case StatusSucceeded, StatusFailed, StatusRejected:
		default:
			return fmt.Errorf("step %d: unknown expect status %q", i, step.Expect.Status)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertBalance:
			if a.Owner == "" || a.Asset == "" || a.Equals == "" {
				return fmt.Errorf("assertion %d: balance requires owner, asset and equals", i)
			}
		case AssertHistoryCount:
		case AssertHistoryOrder:
			if len(a.Types) == 0 {
				return fmt.Errorf("assertion %d: history_order requires types", i)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
