// Package palette builds the 256-entry color tables applied to
// single-channel 8-bit renders.
package palette

import (
	"image/color"
	"math/rand/v2"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Size is the number of entries in every palette.
const Size = 256

// Named palette selectors.
const (
	Sepia    = "sepia"
	Wedge    = "wedge"
	Random   = "random"
	Negative = "negative"
	// CustomName labels the procedural palette used for any other selector.
	CustomName = "custom"
)

// Names lists the accepted canned palette selectors.
var Names = []string{Sepia, Wedge, Random, Negative}

// SepiaWhite is the white point of the sepia ramp.
const SepiaWhite = "#fff0c0"

// Custom returns the procedural palette that separates vegetation, bare land
// and water tones. The arithmetic is integer floor division throughout.
func Custom() color.Palette {
	p := make(color.Palette, Size)
	for i := 0; i < Size; i++ {
		r := min(255, 255-i*i/255+75)
		g := max(0, i-i*(255-i)/(255+i)-50)
		p[i] = color.RGBA{R: uint8(r), G: uint8(g), B: 0, A: 255}
	}
	return p
}

// SepiaRamp ramps each channel linearly from black to the white point.
func SepiaRamp(white string) (color.Palette, error) {
	c, err := colorful.Hex(white)
	if err != nil {
		return nil, err
	}
	wr, wg, wb := c.RGB255()
	p := make(color.Palette, Size)
	for i := 0; i < Size; i++ {
		p[i] = color.RGBA{
			R: uint8(int(wr) * i / 255),
			G: uint8(int(wg) * i / 255),
			B: uint8(int(wb) * i / 255),
			A: 255,
		}
	}
	return p, nil
}

// WedgeRamp is the identity grayscale ramp.
func WedgeRamp() color.Palette {
	p := make(color.Palette, Size)
	for i := 0; i < Size; i++ {
		v := uint8(i)
		p[i] = color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return p
}

// NegativeRamp is the inverted grayscale ramp.
func NegativeRamp() color.Palette {
	p := make(color.Palette, Size)
	for i := 0; i < Size; i++ {
		v := uint8(255 - i)
		p[i] = color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return p
}

// RandomTable draws every channel uniformly from [0,255].
func RandomTable(rng *rand.Rand) color.Palette {
	p := make(color.Palette, Size)
	for i := range p {
		p[i] = color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
	}
	return p
}

// ByName resolves a selector. Unknown or empty names give the custom
// palette; the second result reports the name actually applied. seed feeds
// the random palette, 0 seeds it from the clock.
func ByName(name string, seed uint64) (color.Palette, string) {
	switch name {
	case Sepia:
		p, _ := SepiaRamp(SepiaWhite)
		return p, Sepia
	case Wedge:
		return WedgeRamp(), Wedge
	case Random:
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return RandomTable(rand.New(rand.NewPCG(seed, seed>>1|1))), Random
	case Negative:
		return NegativeRamp(), Negative
	}
	return Custom(), CustomName
}

// IsNamed reports whether name selects a canned palette.
func IsNamed(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
