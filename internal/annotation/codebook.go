package annotation

// CodeDefinition is one codebook entry: the display attributes shared by
// every span coded with it.
type CodeDefinition struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Codebook maps code definition ids to display attributes.
type Codebook map[string]CodeDefinition

// Fallback attributes for spans whose CodeID is missing from the
// codebook. A dangling reference degrades to a neutral look; it never
// fails the render.
const (
	FallbackCodeName  = "uncoded"
	FallbackCodeColor = "#9e9e9e"
)

// Resolve returns the definition for id, or the neutral fallback when
// the id dangles.
func (cb Codebook) Resolve(id string) CodeDefinition {
	if def, ok := cb[id]; ok {
		return def
	}
	return CodeDefinition{Name: FallbackCodeName, Color: FallbackCodeColor}
}

// Definition resolves the display attributes for a code span. The span's
// own denormalized Name/Color win when present, then the codebook entry,
// then the neutral fallback.
func (cb Codebook) Definition(cs CodeSpan) CodeDefinition {
	def := cb.Resolve(cs.CodeID)
	if cs.Name != "" {
		def.Name = cs.Name
	}
	if cs.Color != "" {
		def.Color = cs.Color
	}
	return def
}
