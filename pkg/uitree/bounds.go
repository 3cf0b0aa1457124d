package uitree

import (
	"fmt"
	"strconv"
)

// BoundsAttr is the attribute holding an element's on-screen rectangle.
const BoundsAttr = "bounds"

// Rect is an element rectangle. All four edges are inside the rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Contains reports whether the point lies within r, edges included.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (int, int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// String formats r the way UIAutomator writes bounds: "[l,t][r,b]".
func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// ParseBounds extracts a rectangle from a bounds string such as "[0,0][1080,1920]".
// The first four runs of digits are taken as left, top, right and bottom;
// everything else is a separator.
func ParseBounds(s string) (Rect, error) {
	var vals [4]int
	n := 0
	for i := 0; i < len(s) && n < len(vals); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		v, err := strconv.Atoi(s[i:j])
		if err != nil {
			return Rect{}, fmt.Errorf("%w: %q: %v", ErrMalformedBounds, s, err)
		}
		vals[n] = v
		n++
		i = j
	}
	if n < len(vals) {
		return Rect{}, fmt.Errorf("%w: %q", ErrMalformedBounds, s)
	}
	return Rect{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
