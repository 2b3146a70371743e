package bundle

import (
	"fmt"
	"strings"

	"github.com/roach88/marginalia/internal/annotation"
)

// Validation error codes (E100-E129)
const (
	// Schema errors (E100)
	ErrSchemaViolation = "E100" // bundle rejected by the CUE schema

	// Document errors (E110-E119)
	ErrDocumentMissing    = "E110" // neither text nor file given
	ErrDocumentAmbiguous  = "E111" // both text and file given
	ErrDocumentUnreadable = "E112" // file reference could not be read

	// Annotation errors (E120-E129)
	ErrSpanInverted = "E120" // start greater than end
	ErrSpanNegative = "E121" // negative offset outside the unanchored form
	ErrDuplicateID  = "E122" // id reused within a collection
	ErrEmptyID      = "E123" // missing id
)

// ValidationError is one schema or semantic violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors aggregates every violation found in one pass, so a
// bundle author fixes a batch at a time instead of replaying the loader.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e))
	for _, v := range e {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Validate runs the semantic checks the schema cannot express: span
// ordering, the unanchored memo form, and id uniqueness. It returns
// all errors found (does not fail-fast). The document reference is
// checked by Parse, which owns file resolution.
func Validate(b *Bundle) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateSpans("code_spans", codeSpanRefs(b.CodeSpans), false)...)
	errs = append(errs, validateSpans("highlights", highlightRefs(b.Highlights), false)...)
	errs = append(errs, validateSpans("memos", memoRefs(b.Memos), true)...)

	return errs
}

// spanRef is the common surface of the three annotation records.
type spanRef struct {
	id         string
	start, end int
}

func codeSpanRefs(specs []CodeSpan) []spanRef {
	refs := make([]spanRef, len(specs))
	for i, s := range specs {
		refs[i] = spanRef{id: s.ID, start: s.Start, end: s.End}
	}
	return refs
}

func highlightRefs(specs []Highlight) []spanRef {
	refs := make([]spanRef, len(specs))
	for i, s := range specs {
		refs[i] = spanRef{id: s.ID, start: s.Start, end: s.End}
	}
	return refs
}

func memoRefs(specs []Memo) []spanRef {
	refs := make([]spanRef, len(specs))
	for i, s := range specs {
		refs[i] = spanRef{id: s.ID, start: s.Start, end: s.End}
	}
	return refs
}

func validateSpans(collection string, refs []spanRef, unanchorable bool) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for i, r := range refs {
		// E123: every annotation needs an id
		if strings.TrimSpace(r.id) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d].id", collection, i),
				Message: "id is required and must be non-empty",
				Code:    ErrEmptyID,
			})
		} else {
			// E122: ids are unique within their collection
			if seen[r.id] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d].id", collection, i),
					Message: fmt.Sprintf("duplicate id: %q", r.id),
					Code:    ErrDuplicateID,
				})
			}
			seen[r.id] = true
		}

		span := annotation.Span{Start: r.start, End: r.end}
		if unanchorable && span == annotation.Unanchored {
			continue
		}

		// E121: -1 is only meaningful as the paired unanchored form
		if r.start < 0 || r.end < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", collection, i),
				Message: fmt.Sprintf("negative offset in span [%d, %d); only memos may use the unanchored -1/-1 form", r.start, r.end),
				Code:    ErrSpanNegative,
			})
			continue
		}

		// E120: spans are half-open, start must not pass end
		if r.start > r.end {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", collection, i),
				Message: fmt.Sprintf("inverted span [%d, %d); start must not exceed end", r.start, r.end),
				Code:    ErrSpanInverted,
			})
		}
	}

	return errs
}
