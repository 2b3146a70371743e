// Package annotation defines the data model of the rendering engine: the
// four annotation variants, the uniform tagged record the pipeline
// operates on, and the codebook that resolves code display attributes.
package annotation

import (
	"fmt"
	"time"
)

// Kind distinguishes the annotation variants.
type Kind int

const (
	// KindCode is an analytic code applied to a text range.
	KindCode Kind = iota + 1
	// KindHighlight is a free-form reader highlight.
	KindHighlight
	// KindMemo is a sticky-note memo, optionally anchored to a range.
	KindMemo
	// KindSearch is an ephemeral match of the current search query.
	KindSearch
)

// String returns the wire discriminant for the kind.
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindHighlight:
		return "highlight"
	case KindMemo:
		return "memo"
	case KindSearch:
		return "search"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CodeSpan applies a codebook entry to a text range.
//
// Multiple CodeSpans may share or nest ranges; multi-coding is expected,
// not an error. Name and Color are denormalized copies of the codebook
// entry and may be empty; see Codebook.Definition for resolution order.
type CodeSpan struct {
	ID string `json:"id"`
	Span
	CodeID string `json:"code_id"`
	Color  string `json:"color,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Highlight is a reader-applied tint over a text range.
type Highlight struct {
	ID string `json:"id"`
	Span
	Color string `json:"color"`
}

// Memo is a note attached to a text range, or to nothing at all.
// An unanchored memo has Span == Unanchored; it renders nowhere in the
// document body and exists only for the side list.
type Memo struct {
	ID string `json:"id"`
	Span
	Title   string    `json:"title"`
	Content string    `json:"content,omitempty"`
	Author  string    `json:"author,omitempty"`
	Created time.Time `json:"created,omitempty"`
}

// Anchored reports whether the memo occupies a position in the document.
func (m Memo) Anchored() bool {
	return m.Start >= 0
}

// SearchMatch is one hit of the current query. Matches are regenerated
// whenever the query changes. Index is the hit's position in the match
// array; the active match is the one the current-match pointer addresses.
type SearchMatch struct {
	Span
	Index int `json:"index"`
}

// Annotation is the uniform record the pipeline operates on: a Kind
// discriminant plus exactly one non-nil variant pointer matching it.
// Style resolution switches exhaustively on Kind, so an unhandled
// variant cannot slip through silently.
type Annotation struct {
	Kind      Kind         `json:"kind"`
	Code      *CodeSpan    `json:"code,omitempty"`
	Highlight *Highlight   `json:"highlight,omitempty"`
	Memo      *Memo        `json:"memo,omitempty"`
	Search    *SearchMatch `json:"search,omitempty"`
}

// NewCode wraps a code span.
func NewCode(cs CodeSpan) Annotation {
	return Annotation{Kind: KindCode, Code: &cs}
}

// NewHighlight wraps a highlight.
func NewHighlight(h Highlight) Annotation {
	return Annotation{Kind: KindHighlight, Highlight: &h}
}

// NewMemo wraps a memo.
func NewMemo(m Memo) Annotation {
	return Annotation{Kind: KindMemo, Memo: &m}
}

// NewSearch wraps a search match.
func NewSearch(sm SearchMatch) Annotation {
	return Annotation{Kind: KindSearch, Search: &sm}
}

// Span returns the annotation's authored range, before any clamping.
func (a Annotation) Span() Span {
	switch a.Kind {
	case KindCode:
		return a.Code.Span
	case KindHighlight:
		return a.Highlight.Span
	case KindMemo:
		return a.Memo.Span
	case KindSearch:
		return a.Search.Span
	default:
		return Span{}
	}
}

// ID returns the annotation's identifier. Search matches carry no
// persistent id; they synthesize one from their index for display and
// trace purposes.
func (a Annotation) ID() string {
	switch a.Kind {
	case KindCode:
		return a.Code.ID
	case KindHighlight:
		return a.Highlight.ID
	case KindMemo:
		return a.Memo.ID
	case KindSearch:
		return fmt.Sprintf("match-%d", a.Search.Index)
	default:
		return ""
	}
}

// Anchored reports whether the annotation occupies a document position.
// Only memos can be unanchored.
func (a Annotation) Anchored() bool {
	if a.Kind == KindMemo {
		return a.Memo.Anchored()
	}
	return true
}
