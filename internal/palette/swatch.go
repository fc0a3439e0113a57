package palette

import (
	"image"
	"image/color"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Swatch renders p as a horizontal strip, one column per entry, scaled to
// width×height with nearest-neighbour sampling so entries stay crisp.
func Swatch(p color.Palette, width, height int) image.Image {
	strip := image.NewRGBA(image.Rect(0, 0, len(p), 1))
	for i, c := range p {
		strip.Set(i, 0, c)
	}
	if width <= 0 {
		width = len(p)
	}
	if height <= 0 {
		height = 32
	}
	return resize.Resize(uint(width), uint(height), strip, resize.NearestNeighbor)
}

// Entry is a palette entry in RGB and CIE L*a*b*.
type Entry struct {
	Index   int
	Hex     string
	L, A, B float64
}

// Describe lists entries ordered by lightness, darkest first.
func Describe(p color.Palette) []Entry {
	out := make([]Entry, 0, len(p))
	for i, c := range p {
		cc, _ := colorful.MakeColor(c)
		l, a, b := cc.Lab()
		out = append(out, Entry{Index: i, Hex: cc.Hex(), L: l, A: a, B: b})
	}
	slices.SortStableFunc(out, func(x, y Entry) int {
		switch {
		case x.L < y.L:
			return -1
		case x.L > y.L:
			return 1
		}
		return 0
	})
	return out
}
