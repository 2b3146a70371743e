package engine

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/transcript"
)

// DefaultMaxAnnotations is the default ceiling on the combined
// annotation count per pass. Coverage is a linear filter per fragment,
// so unbounded input would turn a render quadratic; the cap rejects
// pathological documents up front instead.
const DefaultMaxAnnotations = 10000

// Engine runs render passes. It is stateless between passes and safe to
// share: Render only reads configuration.
type Engine struct {
	maxAnnotations int
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAnnotations sets the annotation ceiling per pass.
//
// Use a small value to exercise the guard in tests; raise it for
// machine-generated annotation sets.
func WithMaxAnnotations(n int) Option {
	return func(e *Engine) {
		e.maxAnnotations = n
	}
}

// WithLogger sets the logger for render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxAnnotations: DefaultMaxAnnotations,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAnnotations returns the configured ceiling. Used for diagnostics.
func (e *Engine) MaxAnnotations() int {
	return e.maxAnnotations
}

// StyledFragment pairs a fragment with its resolved style and markers.
type StyledFragment struct {
	Fragment
	Style   FragmentStyle `json:"style"`
	Markers []Marker      `json:"markers,omitempty"`
}

// Layout is the fully resolved fragment/marker tree for one pass, ready
// for presentation. Renderers and the viewer consume it read-only.
type Layout struct {
	Mode      transcript.Mode    `json:"mode"`
	Blocks    []transcript.Block `json:"blocks,omitempty"`
	Fragments []StyledFragment   `json:"fragments"`
	// Unanchored lists memos with no document position, for the side
	// list. They contributed nothing to fragmentation.
	Unanchored []annotation.Memo `json:"unanchored_memos,omitempty"`
	// Matches echoes the pass's search matches so status surfaces can
	// show "match m of n" without re-running the query.
	Matches []annotation.SearchMatch `json:"matches,omitempty"`
	// Length is the document length in runes.
	Length int `json:"length"`
}

// Text reconstructs the document from the fragment sequence. By the
// round-trip invariant this equals the input text exactly.
func (l *Layout) Text() string {
	var b strings.Builder
	for _, f := range l.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

// AllMarkers returns every marker in document order.
func (l *Layout) AllMarkers() []Marker {
	var out []Marker
	for _, f := range l.Fragments {
		out = append(out, f.Markers...)
	}
	return out
}

// Render runs the full pipeline over one snapshot.
//
// The pass is a pure function of its arguments: hover and selection
// state arrive in view and are never retained, and the collections are
// read without mutation. The only error is the annotation cap; malformed
// content (out-of-range spans, dangling code ids, bad timestamps)
// degrades per the clamping and fallback rules instead of failing.
func (e *Engine) Render(doc string, cb annotation.Codebook, in annotation.Collections, view View) (*Layout, error) {
	if total := in.Total(); total > e.maxAnnotations {
		return nil, &LimitError{Count: total, Limit: e.maxAnnotations}
	}

	anns := annotation.Normalize(in)
	mode, blocks := transcript.Segment(doc)
	frags := Fragmentize(doc, anns)
	current := currentMatch(in.Matches, view.CurrentMatch)

	styled := make([]StyledFragment, len(frags))
	for i, f := range frags {
		styled[i] = StyledFragment{
			Fragment: f,
			Style:    ResolveStyle(f, cb, view, current),
			Markers:  Markers(f, cb, view),
		}
	}

	layout := &Layout{
		Mode:      mode,
		Blocks:    blocks,
		Fragments: styled,
		Matches:   in.Matches,
		Length:    utf8.RuneCountInString(doc),
	}
	for _, m := range in.Memos {
		if !m.Anchored() {
			layout.Unanchored = append(layout.Unanchored, m)
		}
	}

	e.logger.Debug("render pass complete",
		"mode", mode.String(),
		"fragments", len(styled),
		"annotations", in.Total(),
		"blocks", len(blocks),
	)
	return layout, nil
}

// currentMatch returns the match the current pointer addresses, nil
// when the pointer is out of range. The returned copy carries its array
// index so style resolution can compare by range.
func currentMatch(matches []annotation.SearchMatch, idx int) *annotation.SearchMatch {
	if idx < 0 || idx >= len(matches) {
		return nil
	}
	m := matches[idx]
	m.Index = idx
	return &m
}
