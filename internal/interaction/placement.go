package interaction

// Point is a screen position in cells or pixels; the controller does
// not care which, as long as anchor, size, and viewport agree.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Size is a width and height in the same unit as Point.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// PlacePopover positions a popover of the given size near an anchor
// rect so that it stays inside the viewport. The preferred position is
// directly below the anchor, left-aligned with it. On bottom overflow
// the popover flips above the anchor; on right overflow it shifts
// left. The result is finally clamped to the viewport origin, so a
// popover larger than the viewport pins to the top-left rather than
// escaping.
func PlacePopover(anchor Rect, size Size, viewport Size) Point {
	x := anchor.X
	y := anchor.Y + anchor.H

	if y+size.H > viewport.H {
		y = anchor.Y - size.H
	}
	if x+size.W > viewport.W {
		x = viewport.W - size.W
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return Point{X: x, Y: y}
}
