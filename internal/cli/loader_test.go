package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundleValid(t *testing.T) {
	path := writeTestBundle(t, codedBundleYAML)

	b, err := loadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, "The cat sat on the mat.", b.Text())
	assert.Len(t, b.CodeSpans, 1)
}

func TestLoadBundleMissing(t *testing.T) {
	_, err := loadBundle(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "bundle not found")
}

func TestLoadBundleInvalid(t *testing.T) {
	path := writeTestBundle(t, invalidBundleYAML)

	_, err := loadBundle(path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid bundle")
	// The underlying findings ride along for diagnosis.
	assert.Contains(t, err.Error(), "E120")
}
