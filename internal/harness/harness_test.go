package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Steps, len(scenario.Flow))
		})
	}
}

func TestRunWithGolden_EscrowRelease(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/escrow_release.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/issue_and_transfer.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectations
description: "expectations that do not hold"
flow:
  - invoke: issue
    args:
      idempotencyKey: k1
      asset: { id: X, type: fiat }
      destination: alice
      quantity: "10"
    expect:
      status: failed
      code: InsufficientBalance
assertions:
  - type: balance
    owner: alice
    asset: X
    equals: "11"
  - type: history_count
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected status failed, got succeeded")
}

func TestRun_FailingSetupIsAnError(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_setup
description: "setup that cannot succeed"
setup:
  - invoke: transfer
    args:
      idempotencyKey: k1
      source: alice
      destination: bob
      asset: { id: X, type: fiat }
      quantity: "1"
flow:
  - invoke: issue
    args: {}
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnknownAsset")
}

func TestParseScenario_Validation(t *testing.T) {
	cases := map[string]string{
		"missing name": `
description: d
flow: [{invoke: issue, args: {}}]`,
		"missing flow": `
name: n
description: d`,
		"unknown field": `
name: n
description: d
flows: []`,
		"bad status": `
name: n
description: d
flow: [{invoke: issue, args: {}, expect: {status: ok}}]`,
		"bad assertion": `
name: n
description: d
flow: [{invoke: issue, args: {}}]
assertions: [{type: balance, owner: a}]`,
		"unknown assertion": `
name: n
description: d
flow: [{invoke: issue, args: {}}]
assertions: [{type: final_state}]`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}
