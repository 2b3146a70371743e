package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/harness"
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
		Long: `Run conformance scenarios against the rendering pipeline.

Each scenario file renders its inlined bundle, scripts the declared
events, and checks its assertions. Scenarios that declare golden
surfaces are also compared byte for byte against the golden files in
the suite's golden/ subdirectory; --update regenerates them.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  marginalia test ./scenarios
  marginalia test ./scenarios --filter "memo-*"
  marginalia test ./scenarios --update
  marginalia test ./scenarios --format json`,
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
	paths, err := harness.DiscoverScenarios(scenariosDir)
	if err != nil {
		var notFound *harness.SuiteNotFoundError
		if errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("[%s] scenarios directory not found: %s", errCodeNotFound, scenariosDir))
		}
		return WrapExitError(ExitCommandError, "failed to discover scenarios", err)
	}

	paths, err = filterScenarios(paths, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	if len(paths) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(paths)),
		Total:     len(paths),
	}

	for _, path := range paths {
		scenResult := runScenarioFile(path, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
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

// filterScenarios applies the glob filter against scenario file stems.
func filterScenarios(paths []string, filter string) ([]string, error) {
	if filter == "" {
		return paths, nil
	}

	var kept []string
	for _, path := range paths {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(filter, stem)
		if err != nil {
			return nil, err
		}
		if matched {
			kept = append(kept, path)
		}
	}
	return kept, nil
}

// runScenarioFile executes a single scenario file and returns the
// result. Failures are reported per scenario; only unusable suites
// abort the run.
func runScenarioFile(path string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failScenario(cmd, opts, filepath.Base(path),
			fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return failScenario(cmd, opts, scenario.Name,
			fmt.Sprintf("execution failed: %v", err))
	}

	errs := append([]string(nil), result.Errors...)
	if opts.Update {
		if err := updateGoldenFiles(path, scenario, result); err != nil {
			return failScenario(cmd, opts, scenario.Name,
				fmt.Sprintf("failed to update golden files: %v", err))
		}
	} else {
		errs = append(errs, compareGoldenFiles(path, scenario, result)...)
	}

	if len(errs) > 0 {
		if opts.Format != "json" {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: scenario.Name, Pass: false, Errors: errs}
	}

	if opts.Format != "json" {
		if opts.Update {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (golden updated)\n", scenario.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", scenario.Name)
		}
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

func failScenario(cmd *cobra.Command, opts *TestOptions, name, msg string) ScenarioResult {
	if opts.Format != "json" {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "✗ %s\n", name)
		fmt.Fprintf(w, "  %s\n", msg)
	}
	return ScenarioResult{Name: name, Pass: false, Errors: []string{msg}}
}

// goldenSurfaces returns the surfaces a scenario compares, defaulting
// to the intent trace.
func goldenSurfaces(scenario *harness.Scenario) []string {
	if len(scenario.Golden) > 0 {
		return scenario.Golden
	}
	return []string{harness.GoldenTrace}
}

// goldenFilePath returns the golden file for one scenario surface. The
// suite keeps goldens in a golden/ subdirectory beside the scenarios,
// keyed by scenario name and surface.
func goldenFilePath(scenarioFile, name, surface string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+"_"+surface+".golden")
}

// updateGoldenFiles writes the scenario's surfaces as golden files.
func updateGoldenFiles(scenarioFile string, scenario *harness.Scenario, result *harness.Result) error {
	goldenDir := filepath.Join(filepath.Dir(scenarioFile), "golden")
	if err := os.MkdirAll(goldenDir, 0755); err != nil {
		return fmt.Errorf("creating golden directory: %w", err)
	}

	for _, surface := range goldenSurfaces(scenario) {
		data, err := harness.GoldenSurface(scenario, result, surface)
		if err != nil {
			return err
		}
		path := goldenFilePath(scenarioFile, scenario.Name, surface)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// compareGoldenFiles compares the scenario's surfaces against existing
// golden files. A missing golden file skips the comparison; the
// scenario then stands on its assertions alone.
func compareGoldenFiles(scenarioFile string, scenario *harness.Scenario, result *harness.Result) []string {
	var errs []string
	for _, surface := range goldenSurfaces(scenario) {
		path := goldenFilePath(scenarioFile, scenario.Name, surface)
		want, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("reading golden %s: %v", surface, err))
			continue
		}

		got, err := harness.GoldenSurface(scenario, result, surface)
		if err != nil {
			errs = append(errs, fmt.Sprintf("computing golden %s: %v", surface, err))
			continue
		}
		if !bytes.Equal(got, want) {
			errs = append(errs, fmt.Sprintf("golden %s mismatch (run with --update to regenerate)", surface))
		}
	}
	return errs
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := writeJSON(cmd, response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
