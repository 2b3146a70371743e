package render

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// NeutralHex is the fallback for unparseable color strings, the same
// neutral gray the codebook falls back to for dangling code ids.
const NeutralHex = "#9e9e9e"

// ParseHex parses a #rgb or #rrggbb string. A malformed color degrades
// to neutral gray instead of failing the render.
func ParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		c, _ = colorful.Hex(NeutralHex)
	}
	return c
}

// Over composites fg at the given alpha over an opaque bg
// (source-over). Alpha is clamped to [0, 1].
func Over(fg colorful.Color, alpha float64, bg colorful.Color) colorful.Color {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return colorful.Color{
		R: fg.R*alpha + bg.R*(1-alpha),
		G: fg.G*alpha + bg.G*(1-alpha),
		B: fg.B*alpha + bg.B*(1-alpha),
	}
}

// CSSRGBA formats a hex color at an alpha as a CSS rgba() value.
func CSSRGBA(hex string, alpha float64) string {
	r, g, b := ParseHex(hex).RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", r, g, b, alpha)
}
