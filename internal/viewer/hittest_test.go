package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/render"
)

// codedOutput renders "The cat sat on the mat." with cat coded Trust.
// The single line lays out as text [0,4), a six-cell chip, text
// [10,13) showing cat, then the tail.
func codedOutput(t *testing.T) (*engine.Layout, *render.Output) {
	t.Helper()
	cb := annotation.Codebook{"cd-trust": {Name: "Trust", Color: "#e64a19"}}
	input := annotation.Collections{
		Codes: []annotation.CodeSpan{
			{ID: "cs-1", Span: annotation.NewSpan(4, 7), CodeID: "cd-trust"},
		},
	}
	layout, err := engine.New().Render("The cat sat on the mat.", cb, input,
		engine.View{ShowCodeColors: true, CurrentMatch: -1})
	require.NoError(t, err)
	return layout, render.NewTerminal().Render(layout)
}

// transcriptOutput renders a two-turn transcript with no annotations.
func transcriptOutput(t *testing.T) (*engine.Layout, *render.Output) {
	t.Helper()
	text := "[00:01:15] Alice: Hello there.\n[00:02:30] Bob: Hi."
	layout, err := engine.New().Render(text, nil, annotation.Collections{},
		engine.View{ShowCodeColors: true, CurrentMatch: -1})
	require.NoError(t, err)
	return layout, render.NewTerminal().Render(layout)
}

func TestHitTest_TextOffset(t *testing.T) {
	layout, out := codedOutput(t)

	h := hitTest(out, layout, 0, 1, 21, 1, 1)
	assert.Equal(t, 1, h.offset)
	assert.Nil(t, h.marker)
	assert.Nil(t, h.block)
}

func TestHitTest_Marker(t *testing.T) {
	layout, out := codedOutput(t)

	h := hitTest(out, layout, 0, 1, 21, 5, 1)
	require.NotNil(t, h.marker)
	assert.Equal(t, "cs-1", h.marker.ID)
	assert.Equal(t, interaction.Rect{X: 4, Y: 1, W: 6, H: 1}, h.anchor)
}

func TestHitTest_TextAfterChipShifts(t *testing.T) {
	layout, out := codedOutput(t)

	// The chip occupies cells [4,10); cat starts at cell 10 but rune 4.
	h := hitTest(out, layout, 0, 1, 21, 10, 1)
	assert.Equal(t, 4, h.offset)

	h = hitTest(out, layout, 0, 1, 21, 12, 1)
	assert.Equal(t, 6, h.offset)
}

func TestHitTest_OffTheLine(t *testing.T) {
	layout, out := codedOutput(t)

	h := hitTest(out, layout, 0, 1, 21, 40, 1)
	assert.Equal(t, -1, h.offset)
	assert.Nil(t, h.marker)
}

func TestHitTest_OutsideContentArea(t *testing.T) {
	layout, out := codedOutput(t)

	assert.Equal(t, -1, hitTest(out, layout, 0, 1, 21, 5, 0).offset)
	assert.Equal(t, -1, hitTest(out, layout, 0, 1, 21, 5, 22).offset)
	assert.Equal(t, -1, hitTest(nil, layout, 0, 1, 21, 5, 1).offset)
}

func TestHitTest_Header(t *testing.T) {
	layout, out := transcriptOutput(t)

	h := hitTest(out, layout, 0, 1, 21, 3, 1)
	require.NotNil(t, h.block)
	assert.Equal(t, 75, h.block.Seconds)

	// Dialogue text after the header belongs to no header span.
	h = hitTest(out, layout, 0, 1, 21, 20, 1)
	assert.Equal(t, 20, h.offset)
	assert.Nil(t, h.block)
}

func TestHitTest_ScrolledViewport(t *testing.T) {
	layout, out := transcriptOutput(t)

	// With the first line scrolled off, row one is the second turn.
	h := hitTest(out, layout, 1, 1, 21, 2, 1)
	require.NotNil(t, h.block)
	assert.Equal(t, 150, h.block.Seconds)
	assert.Equal(t, 33, h.offset)
}

func TestMarkerRef_Kinds(t *testing.T) {
	code := markerRef(engine.Marker{Kind: engine.MarkerCode, ID: "cs-1", Span: annotation.NewSpan(4, 7), Label: "Trust"})
	assert.Equal(t, annotation.KindCode, code.Kind)
	assert.Equal(t, "cs-1", code.ID)
	assert.Equal(t, "Trust", code.Label)

	memo := markerRef(engine.Marker{Kind: engine.MarkerMemo, ID: "m1"})
	assert.Equal(t, annotation.KindMemo, memo.Kind)
}

func TestMarkerRect(t *testing.T) {
	_, out := codedOutput(t)

	rect, ok := markerRect(out, "cs-1", 0, 1, 21)
	require.True(t, ok)
	assert.Equal(t, interaction.Rect{X: 4, Y: 1, W: 6, H: 1}, rect)

	_, ok = markerRect(out, "cs-1", 5, 1, 21)
	assert.False(t, ok, "marker scrolled above the content area")

	_, ok = markerRect(out, "zz", 0, 1, 21)
	assert.False(t, ok)
}

func TestLineOf(t *testing.T) {
	_, out := transcriptOutput(t)

	assert.Equal(t, 0, lineOf(out, 20))
	assert.Equal(t, 1, lineOf(out, 33))
	assert.Equal(t, -1, lineOf(out, 100))
}
