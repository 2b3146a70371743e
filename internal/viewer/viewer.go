// Package viewer is the interactive terminal surface for annotated
// documents. It wires the rendering engine, the interaction
// controller, and a live workspace into a bubbletea program: hovering
// a chip raises its toolbar, clicks toggle selections, and slash
// search drives the match cursor, all against the same layouts the
// export surfaces render.
package viewer

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/marginalia/internal/bundle"
)

// Options configures a viewer session.
type Options struct {
	// Watch reloads the bundle when it, or the document file it
	// references, changes on disk.
	Watch bool
}

// Run loads the bundle at path and blocks in the viewer until the
// user quits.
func Run(path string, opts Options) error {
	b, err := bundle.Load(path)
	if err != nil {
		return err
	}

	var w *watcher
	if opts.Watch {
		w, err = newWatcher(watchTargets(path, b)...)
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer w.Close()
	}

	m := newModel(path, b, w)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

// watchTargets lists the files whose edits should reload the view.
func watchTargets(path string, b *bundle.Bundle) []string {
	targets := []string{path}
	if b.Document.File != "" {
		targets = append(targets, filepath.Join(filepath.Dir(path), b.Document.File))
	}
	return targets
}
