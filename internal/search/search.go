// Package search produces match spans for in-document text search.
//
// Matches are literal substring hits addressed in runes, the same
// coordinate space the annotation model uses. The caller regenerates
// the match set whenever the query or the document changes and feeds
// it to the engine as part of the render input; Cursor keeps the
// current-match index valid across regenerations.
package search

import (
	"unicode"

	"github.com/roach88/marginalia/internal/annotation"
)

// Options configures a search pass.
type Options struct {
	// CaseSensitive matches the query exactly. The default folds
	// case rune by rune, which keeps offsets aligned with the
	// original text.
	CaseSensitive bool

	// WholeWord requires matches to sit on word boundaries.
	WholeWord bool
}

// Find returns every non-overlapping match of query in text, in
// document order. Offsets are rune offsets into text. An empty query
// matches nothing. Each match is stamped with its position in the
// returned slice.
func Find(text, query string, opts Options) []annotation.SearchMatch {
	if query == "" {
		return nil
	}

	tr := []rune(text)
	qr := []rune(query)
	if !opts.CaseSensitive {
		tr = foldRunes(tr)
		qr = foldRunes(qr)
	}
	if len(qr) > len(tr) {
		return nil
	}

	var matches []annotation.SearchMatch
	for i := 0; i+len(qr) <= len(tr); {
		if !runesEqual(tr[i:i+len(qr)], qr) {
			i++
			continue
		}
		if opts.WholeWord && !wordBounded(tr, i, i+len(qr)) {
			i++
			continue
		}
		matches = append(matches, annotation.SearchMatch{
			Span:  annotation.NewSpan(i, i+len(qr)),
			Index: len(matches),
		})
		// Successive matches never overlap.
		i += len(qr)
	}
	return matches
}

// foldRunes lowercases rune by rune. Per-rune folding can miss a few
// exotic case pairs but never changes the rune count, so match spans
// stay valid offsets into the original text.
func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wordBounded reports whether the half-open rune range [start, end)
// is delimited by non-word runes (or the text edges) on both sides.
func wordBounded(rs []rune, start, end int) bool {
	if start > 0 && isWordRune(rs[start-1]) {
		return false
	}
	if end < len(rs) && isWordRune(rs[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
