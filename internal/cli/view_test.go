package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewCommandFlags(t *testing.T) {
	cmd := NewViewCommand(&RootOptions{Format: "text", Color: "auto"})

	assert.NotNil(t, cmd.Flags().Lookup("watch"))
	assert.Equal(t, "view <bundle>", cmd.Use)
}

func TestViewCommandRequiresBundleArg(t *testing.T) {
	cmd := NewViewCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestViewCommandMissingBundle(t *testing.T) {
	// The load pre-check must reject a bad path before the terminal is
	// touched.
	cmd := NewViewCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "bundle not found")
}

func TestViewCommandInvalidBundle(t *testing.T) {
	path := writeTestBundle(t, invalidBundleYAML)

	cmd := NewViewCommand(&RootOptions{Format: "text", Color: "auto"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
