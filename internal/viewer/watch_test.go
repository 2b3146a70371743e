package viewer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/bundle"
)

func watchedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	return path
}

func waitPulse(t *testing.T, ch <-chan struct{}, timeout time.Duration) bool {
	t.Helper()
	select {
	case _, ok := <-ch:
		return ok
	case <-time.After(timeout):
		return false
	}
}

func TestWatcher_PulsesOnWrite(t *testing.T) {
	path := watchedFile(t)
	w, err := newWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	assert.True(t, waitPulse(t, w.Changes(), 2*time.Second))
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	path := watchedFile(t)
	w, err := newWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("noise"), 0o644))

	select {
	case <-w.Changes():
		t.Fatal("sibling write must not pulse")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	path := watchedFile(t)
	w, err := newWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	require.True(t, waitPulse(t, w.Changes(), 2*time.Second))

	// The burst debounces down to the pulse above, plus at most one
	// straggler when a write lands after the first timer fires.
	extra := 0
	for waitPulse(t, w.Changes(), 300*time.Millisecond) {
		extra++
	}
	assert.LessOrEqual(t, extra, 1)
}

func TestWatcher_CloseEndsChanges(t *testing.T) {
	path := watchedFile(t)
	w, err := newWatcher(path)
	require.NoError(t, err)

	w.Close()
	w.Close() // idempotent

	select {
	case _, ok := <-w.Changes():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("changes channel must close")
	}
}

func TestWatchTargets(t *testing.T) {
	b := &bundle.Bundle{}
	assert.Equal(t, []string{"/data/study.yaml"}, watchTargets("/data/study.yaml", b))

	b.Document.File = "interview.txt"
	assert.Equal(t,
		[]string{"/data/study.yaml", "/data/interview.txt"},
		watchTargets("/data/study.yaml", b))
}
