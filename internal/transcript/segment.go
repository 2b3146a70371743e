// Package transcript detects speaker-turn structure in a document and
// exposes it as blocks with absolute rune offsets, so fragmentation and
// styling operate transparently across the whole text.
package transcript

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roach88/marginalia/internal/annotation"
)

// Mode classifies a whole document. The decision is made once per
// document, never per block.
type Mode int

const (
	// ModeUnknown is the pre-classification state.
	ModeUnknown Mode = iota
	// ModePlain renders the document as one region with
	// paragraph-preserving whitespace.
	ModePlain
	// ModeTranscript renders the document as speaker-turn blocks.
	ModeTranscript
)

// String returns the mode's wire name.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeTranscript:
		return "transcript"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the mode as its wire name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", m.String())), nil
}

// headerRe matches a speaker-turn header at the start of a line:
// a bracketed timestamp followed by a speaker name and a colon.
var headerRe = regexp.MustCompile(`^\[.+?\]\s*.+?:`)

// headerPartsRe splits a matched header into its bracket content and
// speaker name submatches.
var headerPartsRe = regexp.MustCompile(`^\[(.+?)\]\s*(.+?):`)

// Block is one speaker turn. All spans are absolute rune offsets into
// the original document; the block never owns a copy of its text.
type Block struct {
	// Span covers the whole block, header included.
	Span annotation.Span `json:"span"`
	// Header covers the matched "[timestamp] speaker:" prefix.
	Header annotation.Span `json:"header"`
	// Dialogue covers the remainder of the block.
	Dialogue annotation.Span `json:"dialogue"`

	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
	// Seconds is the parsed seek target, -1 when the timestamp is not a
	// well-formed HH:MM:SS clock value.
	Seconds int `json:"seconds"`
}

// Segment classifies doc and, in transcript mode, returns its blocks.
//
// A block boundary occurs immediately before any line matching headerRe
// (lookahead split: the header line starts its block). The document is a
// transcript only if every non-empty block begins with such a header;
// any leading prose before the first header fails the all-or-nothing
// test and the whole document falls back to plain mode.
func Segment(doc string) (Mode, []Block) {
	if doc == "" {
		return ModePlain, nil
	}

	headers := headerLines(doc)
	if len(headers) == 0 {
		return ModePlain, nil
	}

	// Prose before the first header means mixed content.
	if strings.TrimSpace(doc[:headers[0].byteStart]) != "" {
		return ModePlain, nil
	}

	total := utf8.RuneCountInString(doc)
	blocks := make([]Block, 0, len(headers))
	for i, h := range headers {
		end := total
		if i+1 < len(headers) {
			end = headers[i+1].runeStart
		}
		blocks = append(blocks, buildBlock(doc, h, end))
	}
	return ModeTranscript, blocks
}

// headerLine records where a matching header line begins, in both byte
// and rune offsets, plus the matched prefix.
type headerLine struct {
	byteStart int
	runeStart int
	matched   string
}

// headerLines scans doc line by line, tracking rune offsets so that
// multi-byte text keeps spans accurate.
func headerLines(doc string) []headerLine {
	var out []headerLine
	byteOff, runeOff := 0, 0
	for _, line := range strings.SplitAfter(doc, "\n") {
		if line == "" {
			break // SplitAfter yields a trailing empty piece when doc ends in \n
		}
		if m := headerRe.FindString(line); m != "" {
			out = append(out, headerLine{byteStart: byteOff, runeStart: runeOff, matched: m})
		}
		byteOff += len(line)
		runeOff += utf8.RuneCountInString(line)
	}
	return out
}

// buildBlock assembles one block from its header line and end offset.
func buildBlock(doc string, h headerLine, end int) Block {
	headerLen := utf8.RuneCountInString(h.matched)
	b := Block{
		Span:     annotation.NewSpan(h.runeStart, end),
		Header:   annotation.NewSpan(h.runeStart, h.runeStart+headerLen),
		Dialogue: annotation.NewSpan(h.runeStart+headerLen, end),
		Seconds:  -1,
	}

	parts := headerPartsRe.FindStringSubmatch(h.matched)
	if parts != nil {
		b.Timestamp = parts[1]
		b.Speaker = strings.TrimSpace(parts[2])
		if secs, ok := ParseTimestamp(b.Timestamp); ok {
			b.Seconds = secs
		}
	}
	return b
}
