package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ledgerd/internal/canon"
)

// Snapshot is the golden-file view of a scenario run: step outcomes and
// the transaction log, in canonical JSON.
type Snapshot struct {
	Scenario string        `json:"scenario"`
	Steps    []StepOutcome `json:"steps"`
	History  any           `json:"history"`
}

// MarshalSnapshot renders result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	return canon.FromStruct(Snapshot{
		Scenario: name,
		Steps:    result.Steps,
		History:  result.History,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
