package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ledgerd/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run scenario files against a fresh in-memory ledger each.

Every flow step's expect clause and every assertion must hold. When
<scenarios-dir>/golden/<name>.golden exists, the step outcomes and the
transaction log must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  ledgerd test ./scenarios
  ledgerd test ./scenarios --filter "escrow_*"
  ledgerd test ./scenarios --update
  ledgerd test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	if len(scenarioFiles) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, scenarioFile := range scenarioFiles {
		sr := runScenario(scenarioFile, opts)
		if opts.Format != "json" {
			printScenario(cmd, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles finds all YAML scenario files directly under dir.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// runScenario executes a single scenario file and checks its golden file.
func runScenario(scenarioFile string, opts *TestOptions) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	fail := func(format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return fail("execution failed: %v", err)
	}

	snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return fail("failed to render snapshot: %v", err)
	}
	goldenPath := goldenFilePath(scenarioFile)

	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return fail("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
			return fail("failed to write golden file: %v", err)
		}
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, snapshot) {
			result.AddError("snapshot does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		return fail("failed to read golden file: %v", err)
	}

	return ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Errors}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func printScenario(cmd *cobra.Command, sr ScenarioResult) {
	w := cmd.OutOrStdout()
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "test_failed",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
