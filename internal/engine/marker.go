package engine

import (
	"fmt"

	"github.com/roach88/marginalia/internal/annotation"
)

// MarkerKind distinguishes marker flavors.
type MarkerKind int

const (
	// MarkerCode is an inline chip colored by the code, clickable to
	// toggle the active-code selection, with a hover toolbar.
	MarkerCode MarkerKind = iota + 1
	// MarkerMemo is a small icon, clickable to toggle the active-memo
	// selection and open the memo's edit surface.
	MarkerMemo
)

// String returns the kind's wire name.
func (k MarkerKind) String() string {
	switch k {
	case MarkerCode:
		return "code"
	case MarkerMemo:
		return "memo"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k MarkerKind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Marker is an interactive anchor rendered at a fragment start, never
// mid-fragment. Markers sit inline without disturbing text flow.
type Marker struct {
	Kind  MarkerKind      `json:"kind"`
	ID    string          `json:"id"`
	Span  annotation.Span `json:"span"`
	Label string          `json:"label"`
	Color string          `json:"color,omitempty"`
	// Active mirrors the view's selection so renderers can emphasize
	// the selected chip or icon.
	Active bool `json:"active,omitempty"`
}

// Markers derives the interactive anchors for a fragment from its
// starting set: a chip per code span, an icon per anchored memo.
// Highlights and search matches never place markers. Order follows the
// starting set, so chips at multi-coded anchors keep a stable order.
func Markers(f Fragment, cb annotation.Codebook, view View) []Marker {
	var markers []Marker
	for _, ann := range f.Starting {
		switch ann.Kind {
		case annotation.KindCode:
			def := cb.Definition(*ann.Code)
			markers = append(markers, Marker{
				Kind:   MarkerCode,
				ID:     ann.Code.ID,
				Span:   ann.Code.Span,
				Label:  def.Name,
				Color:  def.Color,
				Active: view.ActiveCode == ann.Code.ID,
			})

		case annotation.KindMemo:
			markers = append(markers, Marker{
				Kind:   MarkerMemo,
				ID:     ann.Memo.ID,
				Span:   ann.Memo.Span,
				Label:  ann.Memo.Title,
				Active: view.ActiveMemo == ann.Memo.ID,
			})

		case annotation.KindHighlight, annotation.KindSearch:
			// Spanned styling only; no marker.
		}
	}
	return markers
}
