package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/annotation"
)

var testCodebook = annotation.Codebook{
	"cd-red":  {Name: "Red", Color: "#ff0000"},
	"cd-blue": {Name: "Blue", Color: "#0000ff"},
}

func fragmentWith(doc string, in annotation.Collections, span annotation.Span) Fragment {
	frags := Fragmentize(doc, annotation.Normalize(in))
	for _, f := range frags {
		if f.Span == span {
			return f
		}
	}
	panic("no fragment with requested span")
}

func TestResolveStyleSingleVisibleCode(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"}},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)

	assert.Equal(t, BackgroundCode, style.Background.Kind)
	assert.Equal(t, []string{"#ff0000"}, style.Background.Colors)
	assert.Equal(t, CodeAlpha, style.Background.Alpha)
	require.NotNil(t, style.Underline)
	assert.Equal(t, "c1", style.Underline.SpanID)
	assert.Equal(t, "#ff0000", style.Underline.Color)
}

func TestResolveStyleStripes(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{
			{ID: "c1", Span: annotation.NewSpan(0, 11), CodeID: "cd-red"},
			{ID: "c2", Span: annotation.NewSpan(4, 7), CodeID: "cd-blue"},
		},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)

	// Two visible codes stripe in covering order.
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, style.Background.Colors)

	// The narrower code is the primary underline anchor.
	require.NotNil(t, style.Underline)
	assert.Equal(t, "c2", style.Underline.SpanID)
	assert.Equal(t, "#0000ff", style.Underline.Color)
}

func TestResolveStyleNarrowestTieBreaksByOrder(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{
			{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"},
			{ID: "c2", Span: annotation.NewSpan(4, 7), CodeID: "cd-blue"},
		},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)
	require.NotNil(t, style.Underline)
	assert.Equal(t, "c1", style.Underline.SpanID, "equal widths: first in covering order wins")
}

func TestResolveStyleVisibilityXOR(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{
			{ID: "c1", Span: annotation.NewSpan(0, 11), CodeID: "cd-red"},
			{ID: "c2", Span: annotation.NewSpan(4, 7), CodeID: "cd-blue"},
		},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	t.Run("colors on, no active: all visible", func(t *testing.T) {
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)
		assert.Len(t, style.Background.Colors, 2)
	})

	t.Run("colors on, one active: active hidden", func(t *testing.T) {
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true, ActiveCode: "c2"}, nil)
		assert.Equal(t, []string{"#ff0000"}, style.Background.Colors)
	})

	t.Run("colors off, one active: only active visible", func(t *testing.T) {
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: false, ActiveCode: "c2"}, nil)
		assert.Equal(t, []string{"#0000ff"}, style.Background.Colors)
	})

	t.Run("colors off, no active: none visible, underline stays", func(t *testing.T) {
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: false}, nil)
		assert.Equal(t, BackgroundNone, style.Background.Kind)
		assert.NotNil(t, style.Underline)
	})
}

// Toggling ShowCodeColors twice restores the exact visible set for a
// fixed active id.
func TestVisibilityToggleIdempotence(t *testing.T) {
	codes := []*annotation.CodeSpan{
		{ID: "c1", Span: annotation.NewSpan(0, 11), CodeID: "cd-red"},
		{ID: "c2", Span: annotation.NewSpan(4, 7), CodeID: "cd-blue"},
		{ID: "c3", Span: annotation.NewSpan(2, 9), CodeID: "cd-blue"},
	}

	for _, active := range []string{"", "c1", "c2"} {
		view := View{ShowCodeColors: true, ActiveCode: active}
		before := visibleCodes(codes, view)

		view.ShowCodeColors = !view.ShowCodeColors
		view.ShowCodeColors = !view.ShowCodeColors

		assert.Equal(t, before, visibleCodes(codes, view), "active=%q", active)
	}
}

func TestResolveStyleHighlightOverridesCode(t *testing.T) {
	in := annotation.Collections{
		Codes:      []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"}},
		Highlights: []annotation.Highlight{{ID: "h1", Span: annotation.NewSpan(0, 7), Color: "#00ff00"}},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)

	assert.Equal(t, BackgroundHighlight, style.Background.Kind)
	assert.Equal(t, []string{"#00ff00"}, style.Background.Colors)
	assert.Equal(t, HighlightAlpha, style.Background.Alpha)

	// The code underline survives underneath.
	require.NotNil(t, style.Underline)
	assert.Equal(t, "c1", style.Underline.SpanID)
}

func TestResolveStyleSearchOverridesEverything(t *testing.T) {
	in := annotation.Collections{
		Codes:      []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"}},
		Highlights: []annotation.Highlight{{ID: "h1", Span: annotation.NewSpan(0, 7), Color: "#00ff00"}},
		Matches:    []annotation.SearchMatch{{Span: annotation.NewSpan(4, 7)}},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	t.Run("current match gets the active color", func(t *testing.T) {
		current := &annotation.SearchMatch{Span: annotation.NewSpan(4, 7), Index: 0}
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true, CurrentMatch: 0}, current)

		assert.Equal(t, BackgroundSearch, style.Background.Kind)
		assert.Equal(t, []string{ActiveMatchColor}, style.Background.Colors)
		assert.True(t, style.ActiveMatch)
		assert.NotNil(t, style.Underline, "underline persists under search styling")
	})

	t.Run("other matches get the inactive color", func(t *testing.T) {
		current := &annotation.SearchMatch{Span: annotation.NewSpan(20, 23), Index: 1}
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true, CurrentMatch: 1}, current)

		assert.Equal(t, []string{InactiveMatchColor}, style.Background.Colors)
		assert.False(t, style.ActiveMatch)
	})

	t.Run("no current pointer", func(t *testing.T) {
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true, CurrentMatch: -1}, nil)
		assert.Equal(t, []string{InactiveMatchColor}, style.Background.Colors)
	})
}

// A match split by another annotation boundary stays uniformly active:
// the comparison is by range coverage, not per-fragment index.
func TestResolveStyleSplitMatchUniformlyActive(t *testing.T) {
	in := annotation.Collections{
		Codes:   []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(5, 9), CodeID: "cd-red"}},
		Matches: []annotation.SearchMatch{{Span: annotation.NewSpan(4, 11)}},
	}
	current := &annotation.SearchMatch{Span: annotation.NewSpan(4, 11), Index: 0}
	frags := Fragmentize("The cat sat", annotation.Normalize(in))

	for _, f := range frags {
		if !current.Span.Contains(f.Span) {
			continue
		}
		style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true, CurrentMatch: 0}, current)
		assert.True(t, style.ActiveMatch, "fragment %v", f.Span)
		assert.Equal(t, []string{ActiveMatchColor}, style.Background.Colors, "fragment %v", f.Span)
	}
}

func TestResolveStyleDanglingCodeID(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "gone"}},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)

	assert.Equal(t, []string{annotation.FallbackCodeColor}, style.Background.Colors)
	require.NotNil(t, style.Underline)
	assert.Equal(t, annotation.FallbackCodeColor, style.Underline.Color)
}

func TestResolveStylePlainFragment(t *testing.T) {
	f := fragmentWith("The cat sat", annotation.Collections{
		Codes: []annotation.CodeSpan{{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"}},
	}, annotation.NewSpan(0, 4))

	style := ResolveStyle(f, testCodebook, View{ShowCodeColors: true}, nil)
	assert.Equal(t, BackgroundNone, style.Background.Kind)
	assert.Nil(t, style.Underline)
	assert.False(t, style.ActiveMatch)
}

func TestMarkers(t *testing.T) {
	in := annotation.Collections{
		Codes: []annotation.CodeSpan{
			{ID: "c1", Span: annotation.NewSpan(4, 7), CodeID: "cd-red"},
			{ID: "c2", Span: annotation.NewSpan(4, 9), CodeID: "cd-blue"},
		},
		Highlights: []annotation.Highlight{{ID: "h1", Span: annotation.NewSpan(4, 7), Color: "#0f0"}},
		Memos:      []annotation.Memo{{ID: "m1", Span: annotation.NewSpan(4, 4), Title: "why here"}},
		Matches:    []annotation.SearchMatch{{Span: annotation.NewSpan(4, 7)}},
	}
	f := fragmentWith("The cat sat", in, annotation.NewSpan(4, 7))

	markers := Markers(f, testCodebook, View{ActiveCode: "c2", ActiveMemo: "m1"})
	require.Len(t, markers, 3, "highlights and matches place no markers")

	assert.Equal(t, MarkerCode, markers[0].Kind)
	assert.Equal(t, "c1", markers[0].ID)
	assert.Equal(t, "Red", markers[0].Label)
	assert.Equal(t, "#ff0000", markers[0].Color)
	assert.False(t, markers[0].Active)

	assert.Equal(t, "c2", markers[1].ID)
	assert.True(t, markers[1].Active)

	assert.Equal(t, MarkerMemo, markers[2].Kind)
	assert.Equal(t, "m1", markers[2].ID)
	assert.Equal(t, "why here", markers[2].Label)
	assert.True(t, markers[2].Active)
}
