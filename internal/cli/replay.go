package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/marginalia/internal/bundle"
	"github.com/roach88/marginalia/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Check bool // run twice and verify identical traces
}

// replayScript is the on-disk event session: an optional session token
// and the event steps to drive through the controller.
type replayScript struct {
	Session string              `yaml:"session,omitempty"`
	Events  []harness.EventStep `yaml:"events"`
}

// ReplayResult holds the replay verdict for JSON output.
type ReplayResult struct {
	Bundle        string          `json:"bundle"`
	Session       string          `json:"session"`
	Intents       int             `json:"intents"`
	Deterministic *bool           `json:"deterministic,omitempty"`
	Trace         json.RawMessage `json:"trace"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <bundle> <events.yaml>",
		Short: "Replay an event session and print the intent trace",
		Long: `Drive the interaction controller with a scripted event session
against a rendered bundle and print the resulting intent trace.

The events file lists steps in scenario form (hover, leave, click,
toolbar, header_click, selection, timer, reset) plus an optional fixed
session token. Timers fire deterministically, so the same script always
produces the same trace.

With --check the session runs twice and the traces must match byte for
byte; divergence is a failure.

Exit codes:
  0 - Replay succeeded (and traces matched, with --check)
  1 - Traces diverged under --check
  2 - Command error (missing files, malformed script, unknown marker)

Examples:
  marginalia replay study.yaml session.yaml
  marginalia replay study.yaml session.yaml --check
  marginalia replay study.yaml session.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "run twice and verify identical traces")

	return cmd
}

func runReplay(opts *ReplayOptions, bundlePath, scriptPath string, cmd *cobra.Command) error {
	b, err := loadBundle(bundlePath)
	if err != nil {
		return err
	}

	script, err := loadReplayScript(scriptPath)
	if err != nil {
		return err
	}

	scenario := replayScenario(bundlePath, b, script)

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	trace, err := harness.TraceJSON(scenario.Name, scenario.SessionToken(), result)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode trace", err)
	}

	f := formatterFor(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	f.VerboseLog("Replayed %d event(s), %d intent(s)", len(script.Events), len(result.Intents))

	var deterministic *bool
	if opts.Check {
		second, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "second replay failed", err)
		}
		secondTrace, err := harness.TraceJSON(scenario.Name, scenario.SessionToken(), second)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode trace", err)
		}
		same := bytes.Equal(trace, secondTrace)
		deterministic = &same
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, ReplayResult{
			Bundle:        bundlePath,
			Session:       scenario.SessionToken(),
			Intents:       len(result.Intents),
			Deterministic: deterministic,
			Trace:         trace,
		})
	}
	return outputReplayText(cmd, trace, deterministic, len(result.Intents))
}

// loadReplayScript reads and strictly decodes the event session file.
func loadReplayScript(path string) (*replayScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("events file not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", path), err)
	}

	var script replayScript
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("[%s] malformed events file %s", errCodeParse, path), err)
	}
	if len(script.Events) == 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("events file %s declares no events", path))
	}
	return &script, nil
}

// replayScenario wraps the loaded bundle and script as a scenario the
// harness can run. The resolved text is inlined so re-hydration inside
// the runner needs no file access.
func replayScenario(bundlePath string, b *bundle.Bundle, script *replayScript) *harness.Scenario {
	sb := *b
	sb.Document = bundle.Document{Text: b.Text()}

	base := filepath.Base(bundlePath)
	return &harness.Scenario{
		Name:        strings.TrimSuffix(base, filepath.Ext(base)),
		Description: "replayed event session",
		Bundle:      sb,
		Session:     script.Session,
		Events:      script.Events,
	}
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Deterministic != nil && !*result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_REPLAY_DIVERGED",
			Message: "replay traces diverged",
		}
	}

	if err := writeJSON(cmd, response); err != nil {
		return err
	}

	if result.Deterministic != nil && !*result.Deterministic {
		// Divergence = exit code 1
		return NewExitError(ExitFailure, "replay traces diverged")
	}
	return nil
}

// outputReplayText prints the trace, with the determinism verdict when
// --check ran.
func outputReplayText(cmd *cobra.Command, trace []byte, deterministic *bool, intents int) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, string(trace))

	if deterministic == nil {
		return nil
	}
	if *deterministic {
		fmt.Fprintf(w, "✓ replay deterministic (%d intent(s))\n", intents)
		return nil
	}
	fmt.Fprintln(w, "✗ replay traces diverged")
	// Divergence = exit code 1
	return NewExitError(ExitFailure, "replay traces diverged")
}
