package workspace

import (
	"sync"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/bundle"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/search"
)

// Workspace is the single owner of one document's mutable state.
type Workspace struct {
	mu sync.RWMutex

	text     string
	codebook annotation.Codebook

	codes      []annotation.CodeSpan
	highlights []annotation.Highlight
	memos      []annotation.Memo

	view engine.View

	query     string
	queryOpts search.Options
	matches   []annotation.SearchMatch
	cursor    *search.Cursor

	ids interaction.TokenGenerator
}

// Option configures a workspace.
type Option func(*Workspace)

// WithTokenGenerator replaces the id source for annotations the
// workspace creates. Tests pass a fixed generator.
func WithTokenGenerator(gen interaction.TokenGenerator) Option {
	return func(w *Workspace) { w.ids = gen }
}

// New creates a workspace over already-normalized text.
func New(text string, cb annotation.Codebook, in annotation.Collections, view engine.View, opts ...Option) *Workspace {
	w := &Workspace{
		text:       text,
		codebook:   cb,
		codes:      append([]annotation.CodeSpan(nil), in.Codes...),
		highlights: append([]annotation.Highlight(nil), in.Highlights...),
		memos:      append([]annotation.Memo(nil), in.Memos...),
		view:       view,
		cursor:     search.NewCursor(nil),
		ids:        interaction.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FromBundle hydrates a workspace from a loaded bundle.
func FromBundle(b *bundle.Bundle, opts ...Option) *Workspace {
	return New(b.Text(), b.Codebook, b.Collections(), b.View, opts...)
}

// Snapshot is one consistent render input. It shares nothing mutable
// with the workspace.
type Snapshot struct {
	Text     string
	Codebook annotation.Codebook
	Input    annotation.Collections
	View     engine.View
}

// Snapshot deep-copies the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	cb := make(annotation.Codebook, len(w.codebook))
	for id, def := range w.codebook {
		cb[id] = def
	}

	view := w.view
	view.CurrentMatch = w.cursor.Current()

	return Snapshot{
		Text:     w.text,
		Codebook: cb,
		Input: annotation.Collections{
			Codes:      append([]annotation.CodeSpan(nil), w.codes...),
			Highlights: append([]annotation.Highlight(nil), w.highlights...),
			Memos:      append([]annotation.Memo(nil), w.memos...),
			Matches:    append([]annotation.SearchMatch(nil), w.matches...),
		},
		View: view,
	}
}

// Text returns the document text.
func (w *Workspace) Text() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.text
}

// Query returns the current search query.
func (w *Workspace) Query() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.query
}

// MatchCount returns how many hits the current query has.
func (w *Workspace) MatchCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.matches)
}

// CurrentMatch returns the focused match index, -1 when none.
func (w *Workspace) CurrentMatch() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cursor.Current()
}
