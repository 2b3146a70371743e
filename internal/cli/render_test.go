package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codedBundleYAML = `document:
  text: "The cat sat on the mat."
codebook:
  cd-trust: {name: Trust, color: "#e64a19"}
code_spans:
  - {id: cs-1, code: cd-trust, start: 4, end: 7}
view:
  show_code_colors: true
`

const invalidBundleYAML = `document:
  text: "The cat sat on the mat."
code_spans:
  - {id: cs-1, start: 7, end: 4}
`

// writeTestBundle drops a bundle fixture into a temp dir and returns
// its path.
func writeTestBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, writeFile(path, content))
	return path
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestRenderText(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Color: "auto"}
	cmd := NewRenderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "▎Trust")
	assert.Contains(t, output, "cat sat on the mat.")
	// Not a terminal, so auto color strips the escapes.
	assert.NotContains(t, output, "\x1b[")
}

func TestRenderTextForcedColor(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Color: "always"}
	cmd := NewRenderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\x1b[", "--color=always must keep the escapes")
}

func TestRenderHTML(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Color: "auto"}
	cmd := NewRenderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--to", "html"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `<article class="document"`)
	assert.Contains(t, output, "cat")
	assert.Contains(t, output, `data-id="cs-1"`)
}

func TestRenderJSONFormat(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Color: "auto"}
	cmd := NewRenderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	layout, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "plain", layout["mode"])
	fragments, ok := layout["fragments"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fragments, 3)
}

func TestRenderToFile(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)
	outPath := filepath.Join(t.TempDir(), "out.txt")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Color: "auto"}
	cmd := NewRenderCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--out", outPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "▎Trust")
	assert.False(t, strings.Contains(string(data), "\x1b["), "files get plain text")
}

func TestRenderInvalidSurface(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	cmd := NewRenderCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--to", "pdf"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid surface")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderMissingBundle(t *testing.T) {
	cmd := NewRenderCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderInvalidBundle(t *testing.T) {
	path := writeTestBundle(t, invalidBundleYAML)

	cmd := NewRenderCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bundle")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
