package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenarioYAML = `name: cat-basics
description: basic render of the coded cat document
document:
  text: "The cat sat on the mat."
codebook:
  cd-trust: {name: Trust, color: "#e64a19"}
code_spans:
  - {id: cs-1, code: cd-trust, start: 4, end: 7}
assertions:
  - {type: round_trip}
  - {type: fragment_count, count: 3}
`

const failingScenarioYAML = `name: cat-wrong
description: deliberately wrong fragment count
document:
  text: "The cat sat on the mat."
code_spans:
  - {id: cs-1, start: 4, end: 7}
assertions:
  - {type: fragment_count, count: 99}
`

const clickScenarioYAML = `name: chip-click
description: clicking the chip toggles the code selection
document:
  text: "The cat sat on the mat."
codebook:
  cd-trust: {name: Trust, color: "#e64a19"}
code_spans:
  - {id: cs-1, code: cd-trust, start: 4, end: 7}
events:
  - {do: click, marker: cs-1}
assertions:
  - {type: intent_trace, intents: [toggle_code]}
`

// writeSuite lays out a scenario directory from name -> content.
func writeSuite(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scenarios {
		require.NoError(t, writeFile(filepath.Join(dir, name), content))
	}
	return dir
}

func TestTestCommandAllPass(t *testing.T) {
	dir := writeSuite(t, map[string]string{
		"cat-basics.yaml": passingScenarioYAML,
		"chip-click.yaml": clickScenarioYAML,
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ cat-basics")
	assert.Contains(t, output, "✓ chip-click")
	assert.Contains(t, output, "2 passed, 0 failed, 2 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandFailure(t *testing.T) {
	dir := writeSuite(t, map[string]string{
		"cat-basics.yaml": passingScenarioYAML,
		"cat-wrong.yaml":  failingScenarioYAML,
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ cat-wrong")
	assert.Contains(t, output, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeSuite(t, map[string]string{
		"cat-basics.yaml": passingScenarioYAML,
		"cat-wrong.yaml":  failingScenarioYAML,
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "cat-basics"})

	// The failing scenario is filtered out, so the run passes.
	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := writeSuite(t, map[string]string{"cat-basics.yaml": passingScenarioYAML})

	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--filter", "[bad"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptySuite(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommandMissingDirectory(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nowhere")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestTestCommandLoadErrorFailsScenario(t *testing.T) {
	dir := writeSuite(t, map[string]string{
		"broken.yaml": "name: broken\n", // missing description and assertions
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ broken.yaml")
	assert.Contains(t, buf.String(), "failed to load scenario")
}

func TestTestCommandJSON(t *testing.T) {
	dir := writeSuite(t, map[string]string{
		"cat-basics.yaml": passingScenarioYAML,
		"cat-wrong.yaml":  failingScenarioYAML,
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 2, resp.Data.Total)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := writeSuite(t, map[string]string{"chip-click.yaml": clickScenarioYAML})

	update := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	updateBuf := &bytes.Buffer{}
	update.SetOut(updateBuf)
	update.SetArgs([]string{dir, "--update"})
	require.NoError(t, update.Execute())
	assert.Contains(t, updateBuf.String(), "golden updated")

	goldenPath := filepath.Join(dir, "golden", "chip-click_trace.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "toggle_code")

	// The trace is deterministic, so the comparison run passes.
	compare := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	compareBuf := &bytes.Buffer{}
	compare.SetOut(compareBuf)
	compare.SetArgs([]string{dir})
	require.NoError(t, compare.Execute())
	assert.Contains(t, compareBuf.String(), "✓ chip-click")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := writeSuite(t, map[string]string{"chip-click.yaml": clickScenarioYAML})

	goldenDir := filepath.Join(dir, "golden")
	require.NoError(t, os.MkdirAll(goldenDir, 0755))
	require.NoError(t, writeFile(filepath.Join(goldenDir, "chip-click_trace.golden"), "stale"))

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "golden trace mismatch")
}

func TestFilterScenarios(t *testing.T) {
	paths := []string{"/suite/cat-basics.yaml", "/suite/chip-click.yaml"}

	kept, err := filterScenarios(paths, "cat-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"/suite/cat-basics.yaml"}, kept)

	all, err := filterScenarios(paths, "")
	require.NoError(t, err)
	assert.Equal(t, paths, all)

	none, err := filterScenarios(paths, "zebra-*")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGoldenFilePath(t *testing.T) {
	got := goldenFilePath("/suite/chip-click.yaml", "chip-click", "trace")
	assert.Equal(t, filepath.Join("/suite", "golden", "chip-click_trace.golden"), got)
}
