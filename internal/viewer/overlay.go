package viewer

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// overlay paints box over base with its top-left corner at (x, y),
// both in cells. Rows the box does not cover pass through untouched;
// covered rows keep their left and right remainders, sliced with
// ANSI-aware cuts so styles survive the splice.
func overlay(base, box string, x, y int) string {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	for i, row := range boxLines {
		idx := y + i
		if idx >= len(baseLines) {
			break
		}
		baseLines[idx] = spliceLine(baseLines[idx], row, x)
	}
	return strings.Join(baseLines, "\n")
}

func spliceLine(line, ins string, x int) string {
	w := ansi.StringWidth(ins)
	left := ansi.Truncate(line, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	right := ansi.TruncateLeft(line, x+w, "")
	// The left remainder may end with its style still open.
	return left + ansi.ResetStyle + ins + right
}
