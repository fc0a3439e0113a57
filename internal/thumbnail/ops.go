package thumbnail

import (
	"image"
	"math"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"github.com/disintegration/imaging"
)

// ToGray keeps the high byte of each sample, clamped to [0,255].
func ToGray(b *raster.Band) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Pix {
		g.Pix[i] = uint8(min(v>>8, 255))
	}
	return g
}

// Blend mixes src into dst in place: dst + w*(src-dst), truncated.
func Blend(dst, src *image.Gray, w float32) {
	for i, a := range dst.Pix {
		fa := float32(a)
		dst.Pix[i] = clamp8(fa + w*(float32(src.Pix[i])-fa))
	}
}

// FitSize returns the size that fits a w×h image inside the box while
// preserving the aspect ratio. Images already inside the box keep their
// size. The free dimension is rounded down or up, whichever keeps the
// aspect ratio closer.
func FitSize(w, h, boxW, boxH int) (int, int) {
	if boxW >= w && boxH >= h {
		return w, h
	}
	aspect := float64(w) / float64(h)
	x, y := float64(boxW), float64(boxH)
	if x/y >= aspect {
		return roundAspect(y*aspect, func(n float64) float64 {
			return math.Abs(aspect - n/y)
		}), boxH
	}
	return boxW, roundAspect(x/aspect, func(n float64) float64 {
		if n == 0 {
			return 0
		}
		return math.Abs(aspect - x/n)
	})
}

func roundAspect(v float64, errOf func(float64) float64) int {
	lo, hi := math.Floor(v), math.Ceil(v)
	n := lo
	if errOf(hi) < errOf(lo) {
		n = hi
	}
	return max(int(n), 1)
}

// Fit shrinks g with bicubic (Catmull-Rom) resampling to fit inside the box.
func Fit(g *image.Gray, boxW, boxH int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	tw, th := FitSize(w, h, boxW, boxH)
	if tw == w && th == h {
		return g
	}
	resized := imaging.Resize(g, tw, th, imaging.CatmullRom)
	out := image.NewGray(image.Rect(0, 0, tw, th))
	for i := range out.Pix {
		out.Pix[i] = resized.Pix[i*4]
	}
	return out
}

// Mean returns the histogram mean of g.
func Mean(g *image.Gray) float64 {
	var hist [256]uint64
	for _, v := range g.Pix {
		hist[v]++
	}
	var sum, n uint64
	for v, c := range hist {
		sum += uint64(v) * c
		n += c
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Contrast stretches g in place around its rounded mean by factor.
func Contrast(g *image.Gray, factor float64) {
	mean := float32(int(Mean(g) + 0.5))
	f := float32(factor)
	for i, v := range g.Pix {
		g.Pix[i] = clamp8(mean + f*(float32(v)-mean))
	}
}

func clamp8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
