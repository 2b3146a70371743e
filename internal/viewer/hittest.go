package viewer

import (
	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/render"
	"github.com/roach88/marginalia/internal/transcript"
)

// hit resolves one screen cell against the rendered document.
type hit struct {
	// marker is non-nil when the cell sits on a chip or icon.
	marker *engine.Marker
	// anchor is the marker's screen rect, valid when marker is set.
	anchor interaction.Rect
	// offset is the rune offset under the cell, -1 off the text.
	offset int
	// block is non-nil when the cell sits inside a turn header.
	block *transcript.Block
}

// hitTest maps a terminal cell to the document through the renderer's
// line map. x and y are screen coordinates; the content area starts
// at contentTop and scrolls with yOffset.
func hitTest(out *render.Output, layout *engine.Layout, yOffset, contentTop, contentHeight, x, y int) hit {
	h := hit{offset: -1}
	if out == nil || y < contentTop || y >= contentTop+contentHeight {
		return h
	}
	line := yOffset + (y - contentTop)
	if line < 0 || line >= len(out.Lines) {
		return h
	}
	for i := range out.Lines[line] {
		seg := out.Lines[line][i]
		if x < seg.Cols.Start || x >= seg.Cols.End {
			continue
		}
		if seg.Marker != nil {
			h.marker = seg.Marker
			h.anchor = interaction.Rect{X: seg.Cols.Start, Y: y, W: seg.Cols.Len(), H: 1}
			return h
		}
		h.offset = seg.Runes.Start + (x - seg.Cols.Start)
		h.block = blockAt(layout, h.offset)
		return h
	}
	return h
}

// blockAt returns the block whose header covers the offset.
func blockAt(layout *engine.Layout, off int) *transcript.Block {
	if layout == nil {
		return nil
	}
	for i := range layout.Blocks {
		hd := layout.Blocks[i].Header
		if hd.Start <= off && off < hd.End {
			return &layout.Blocks[i]
		}
	}
	return nil
}

// markerRef snapshots a rendered marker for the controller.
func markerRef(mk engine.Marker) interaction.MarkerRef {
	kind := annotation.KindCode
	if mk.Kind == engine.MarkerMemo {
		kind = annotation.KindMemo
	}
	return interaction.MarkerRef{Kind: kind, ID: mk.ID, Span: mk.Span, Label: mk.Label}
}

// markerRect finds the current screen rect of the marker with the
// given id, false when it is scrolled outside the content area.
func markerRect(out *render.Output, id string, yOffset, contentTop, contentHeight int) (interaction.Rect, bool) {
	if out == nil {
		return interaction.Rect{}, false
	}
	for line, segs := range out.Lines {
		for i := range segs {
			if segs[i].Marker == nil || segs[i].Marker.ID != id {
				continue
			}
			y := line - yOffset + contentTop
			if y < contentTop || y >= contentTop+contentHeight {
				return interaction.Rect{}, false
			}
			return interaction.Rect{X: segs[i].Cols.Start, Y: y, W: segs[i].Cols.Len(), H: 1}, true
		}
	}
	return interaction.Rect{}, false
}

// lineOf returns the content line whose text covers the rune offset,
// -1 when no text segment does.
func lineOf(out *render.Output, off int) int {
	if out == nil {
		return -1
	}
	for line, segs := range out.Lines {
		for i := range segs {
			if segs[i].Marker != nil {
				continue
			}
			r := segs[i].Runes
			if r.Start <= off && off < r.End {
				return line
			}
		}
	}
	return -1
}
