package engine

import (
	"fmt"

	"github.com/roach88/marginalia/internal/annotation"
)

// View is the transient presentation state for one pass. It arrives
// from outside on every render; the engine never stores it.
type View struct {
	// ShowCodeColors toggles code backgrounds globally. Combined with
	// ActiveCode it forms the focus rule, see visibleCodes.
	ShowCodeColors bool `json:"show_code_colors" yaml:"show_code_colors"`
	// ActiveCode is the selected coded-segment id, "" when none.
	ActiveCode string `json:"active_code,omitempty" yaml:"active_code"`
	// ActiveMemo is the selected memo id, "" when none.
	ActiveMemo string `json:"active_memo,omitempty" yaml:"active_memo"`
	// CurrentMatch indexes the match array; -1 (or out of range) means
	// no focused match.
	CurrentMatch int `json:"current_match" yaml:"current_match"`
}

// Fixed alphas and the search palette. Code and highlight tints are
// translucent so text stays readable; search backgrounds are solid.
const (
	CodeAlpha      = 0.30
	HighlightAlpha = 0.40

	ActiveMatchColor   = "#ff9632"
	InactiveMatchColor = "#ffe38c"
)

// BackgroundKind says which annotation layer won the background.
type BackgroundKind int

const (
	BackgroundNone BackgroundKind = iota
	BackgroundCode
	BackgroundHighlight
	BackgroundSearch
)

// String returns the kind's wire name.
func (k BackgroundKind) String() string {
	switch k {
	case BackgroundCode:
		return "code"
	case BackgroundHighlight:
		return "highlight"
	case BackgroundSearch:
		return "search"
	default:
		return "none"
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k BackgroundKind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Background is the resolved fill for a fragment. Colors holds one hex
// color per stripe band for BackgroundCode (a single element means a
// flat tint) and exactly one element for the other kinds. Band heights
// are always equal: 100/len(Colors) percent each.
type Background struct {
	Kind   BackgroundKind `json:"kind"`
	Colors []string       `json:"colors,omitempty"`
	Alpha  float64        `json:"alpha,omitempty"`
}

// Underline is the dashed rule derived from the primary covering code.
type Underline struct {
	SpanID string `json:"span_id"`
	Color  string `json:"color"`
}

// FragmentStyle is the composed visual treatment of one fragment.
type FragmentStyle struct {
	Background Background `json:"background"`
	// Underline survives every background override and ignores the
	// visibility rule; it renders whenever any code covers the fragment.
	Underline *Underline `json:"underline,omitempty"`
	// ActiveMatch marks the fragment as part of the focused search match.
	ActiveMatch bool `json:"active_match,omitempty"`
}

// ResolveStyle computes the composed style for one fragment under the
// given view state.
//
// Precedence, lowest first:
//  1. code tint or stripes from the visible covering codes
//  2. a covering highlight replaces the background
//  3. a covering search match replaces both; the match the
//     current-match pointer addresses gets the active color
//
// The dashed underline comes from the primary anchor: the narrowest
// covering code, first in covering order on ties.
func ResolveStyle(f Fragment, cb annotation.Codebook, view View, current *annotation.SearchMatch) FragmentStyle {
	var style FragmentStyle

	codes := coveringCodes(f)
	if len(codes) > 0 {
		primary := narrowest(codes)
		style.Underline = &Underline{
			SpanID: primary.ID,
			Color:  cb.Definition(*primary).Color,
		}
		if visible := visibleCodes(codes, view); len(visible) > 0 {
			bands := make([]string, len(visible))
			for i, cs := range visible {
				bands[i] = cb.Definition(*cs).Color
			}
			style.Background = Background{Kind: BackgroundCode, Colors: bands, Alpha: CodeAlpha}
		}
	}

	for _, ann := range f.Covering {
		if ann.Kind == annotation.KindHighlight {
			style.Background = Background{
				Kind:   BackgroundHighlight,
				Colors: []string{ann.Highlight.Color},
				Alpha:  HighlightAlpha,
			}
			break // first covering highlight wins
		}
	}

	for _, ann := range f.Covering {
		if ann.Kind != annotation.KindSearch {
			continue
		}
		color := InactiveMatchColor
		if current != nil && current.Span.Contains(f.Span) {
			color = ActiveMatchColor
			style.ActiveMatch = true
		}
		style.Background = Background{Kind: BackgroundSearch, Colors: []string{color}, Alpha: 1}
		break
	}

	return style
}

// coveringCodes extracts the covering code spans in normalization order.
func coveringCodes(f Fragment) []*annotation.CodeSpan {
	var codes []*annotation.CodeSpan
	for _, ann := range f.Covering {
		if ann.Kind == annotation.KindCode {
			codes = append(codes, ann.Code)
		}
	}
	return codes
}

// narrowest picks the primary style anchor: the covering code with the
// smallest authored range, first-seen order breaking ties.
func narrowest(codes []*annotation.CodeSpan) *annotation.CodeSpan {
	best := codes[0]
	for _, cs := range codes[1:] {
		if cs.Len() < best.Len() {
			best = cs
		}
	}
	return best
}

// visibleCodes applies the focus rule: with ShowCodeColors on, every
// code except the active one shows; with it off, only the active one
// shows. The flags compose as an XOR, so toggling ShowCodeColors twice
// restores the exact visible set for any fixed active id.
func visibleCodes(codes []*annotation.CodeSpan, view View) []*annotation.CodeSpan {
	var visible []*annotation.CodeSpan
	for _, cs := range codes {
		active := view.ActiveCode != "" && cs.ID == view.ActiveCode
		if view.ShowCodeColors != active {
			visible = append(visible, cs)
		}
	}
	return visible
}
