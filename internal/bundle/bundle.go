// Package bundle loads annotated-document bundles: the document text,
// its codebook, and the annotation collections a render pass consumes.
//
// Bundles are YAML; JSON parses too since YAML subsumes it. Decoding
// is strict, unknown fields are rejected so typos fail loudly. The
// embedded CUE schema checks shape and value domains the Go types
// cannot, and semantic validation accumulates every violation instead
// of stopping at the first.
//
// Loading is ingest only. Nothing is ever written back to a bundle
// file; mutations live and die with the process.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
)

// Document is the text source: inline, or a file reference resolved
// relative to the bundle's directory. Exactly one must be set.
type Document struct {
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// CodeSpan is the authored form of a coded segment. Code references a
// codebook entry; Name and Color are optional per-span overrides.
type CodeSpan struct {
	ID    string `yaml:"id" json:"id"`
	Code  string `yaml:"code,omitempty" json:"code,omitempty"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
}

// Highlight is the authored form of a reader highlight.
type Highlight struct {
	ID    string `yaml:"id" json:"id"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
}

// Memo is the authored form of a memo. start: -1, end: -1 declares an
// unanchored memo that belongs to the document, not to a range.
type Memo struct {
	ID      string    `yaml:"id" json:"id"`
	Title   string    `yaml:"title,omitempty" json:"title,omitempty"`
	Content string    `yaml:"content,omitempty" json:"content,omitempty"`
	Author  string    `yaml:"author,omitempty" json:"author,omitempty"`
	Created time.Time `yaml:"created,omitempty" json:"created,omitempty"`
	Start   int       `yaml:"start" json:"start"`
	End     int       `yaml:"end" json:"end"`
}

// Bundle is one decoded document bundle.
type Bundle struct {
	Document   Document            `yaml:"document" json:"document"`
	Codebook   annotation.Codebook `yaml:"codebook,omitempty" json:"codebook,omitempty"`
	CodeSpans  []CodeSpan          `yaml:"code_spans,omitempty" json:"code_spans,omitempty"`
	Highlights []Highlight         `yaml:"highlights,omitempty" json:"highlights,omitempty"`
	Memos      []Memo              `yaml:"memos,omitempty" json:"memos,omitempty"`
	View       engine.View         `yaml:"view,omitempty" json:"view,omitempty"`

	// text is the resolved, NFC-normalized document text.
	text string
}

// Option configures Parse.
type Option func(*loader)

type loader struct {
	baseDir  string
	filename string
}

// WithBaseDir resolves document file references against dir instead of
// the working directory.
func WithBaseDir(dir string) Option {
	return func(l *loader) { l.baseDir = dir }
}

// Load reads and parses a bundle file, resolving document references
// relative to the file's directory.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	return parse(data, &loader{baseDir: filepath.Dir(path), filename: filepath.Base(path)})
}

// Parse decodes, validates, and resolves a bundle from raw bytes.
// Malformed YAML fails fast; schema and semantic violations accumulate
// and come back together as ValidationErrors.
func Parse(data []byte, opts ...Option) (*Bundle, error) {
	l := &loader{filename: "bundle.yaml"}
	for _, opt := range opts {
		opt(l)
	}
	return parse(data, l)
}

func parse(data []byte, l *loader) (*Bundle, error) {
	// CurrentMatch pre-set so an absent field means "no focused match"
	// rather than match zero.
	b := &Bundle{View: engine.View{CurrentMatch: -1}}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(b); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}

	errs := ValidationErrors(validateSchema(l.filename, data))
	if hErr := b.Hydrate(l.baseDir); hErr != nil {
		var hErrs ValidationErrors
		if !errors.As(hErr, &hErrs) {
			return nil, hErr
		}
		errs = append(errs, hErrs...)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return b, nil
}

// Hydrate validates the decoded bundle, resolves its document
// reference against baseDir, and normalizes the text. Parse calls it;
// loaders that decode a bundle embedded in a larger file (scenario
// fixtures) call it directly.
func (b *Bundle) Hydrate(baseDir string) error {
	errs := ValidationErrors(Validate(b))

	text, docErrs := (&loader{baseDir: baseDir}).resolveDocument(b.Document)
	errs = append(errs, docErrs...)
	if len(errs) > 0 {
		return errs
	}

	// Normalize once at the ingest boundary; rune offsets downstream
	// index the normalized form.
	b.text = norm.NFC.String(text)
	return nil
}

func (l *loader) resolveDocument(d Document) (string, []ValidationError) {
	switch {
	case d.Text == "" && d.File == "":
		return "", []ValidationError{{
			Field:   "document",
			Message: "document requires either text or file",
			Code:    ErrDocumentMissing,
		}}
	case d.Text != "" && d.File != "":
		return "", []ValidationError{{
			Field:   "document",
			Message: "document takes text or file, not both",
			Code:    ErrDocumentAmbiguous,
		}}
	case d.File != "":
		path := d.File
		if !filepath.IsAbs(path) && l.baseDir != "" {
			path = filepath.Join(l.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", []ValidationError{{
				Field:   "document.file",
				Message: fmt.Sprintf("reading %s: %v", d.File, err),
				Code:    ErrDocumentUnreadable,
			}}
		}
		return string(data), nil
	default:
		return d.Text, nil
	}
}

// Text returns the resolved, NFC-normalized document text.
func (b *Bundle) Text() string {
	return b.text
}

// Collections converts the authored records into the render input
// sets. Search matches are not part of a bundle; the query arrives
// from whichever surface is driving the render.
func (b *Bundle) Collections() annotation.Collections {
	var in annotation.Collections

	for _, cs := range b.CodeSpans {
		in.Codes = append(in.Codes, annotation.CodeSpan{
			ID:     cs.ID,
			Span:   annotation.Span{Start: cs.Start, End: cs.End},
			CodeID: cs.Code,
			Name:   cs.Name,
			Color:  cs.Color,
		})
	}
	for _, h := range b.Highlights {
		in.Highlights = append(in.Highlights, annotation.Highlight{
			ID:    h.ID,
			Span:  annotation.Span{Start: h.Start, End: h.End},
			Color: h.Color,
		})
	}
	for _, m := range b.Memos {
		in.Memos = append(in.Memos, annotation.Memo{
			ID:      m.ID,
			Span:    annotation.Span{Start: m.Start, End: m.End},
			Title:   m.Title,
			Content: m.Content,
			Author:  m.Author,
			Created: m.Created,
		})
	}
	return in
}
