// Package ndvi computes the normalized difference vegetation index of a
// multi-band raster and renders it through a palette.
package ndvi

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/palette"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Sentinel is the 8-bit value written where the index is undefined.
const Sentinel = 128

// sampleScale normalizes raw samples before accumulation.
const sampleScale = 65536.0

// Reference band groups.
var (
	DefaultRed = raster.BandGroup{Name: "red", Ranges: []raster.BandRange{{First: 1, Last: 4}}}
	DefaultNir = raster.BandGroup{Name: "nir", Ranges: []raster.BandRange{{First: 5, Last: 10}}}
)

// Options configures an Engine.
type Options struct {
	Red raster.BandGroup
	Nir raster.BandGroup
	// Seed feeds the random palette; 0 seeds from the clock.
	Seed   uint64
	Strict bool
}

// DefaultOptions returns the reference band layout.
func DefaultOptions() Options {
	return Options{Red: DefaultRed, Nir: DefaultNir}
}

// Engine renders NDVI images into the ndvi slot of a store.
type Engine struct {
	store *artifact.Store
	enc   encoder.Encoder
	opts  Options
}

// New creates an Engine. A nil encoder writes indexed PNG.
func New(store *artifact.Store, enc encoder.Encoder, opts Options) *Engine {
	if enc == nil {
		enc = &encoder.PNGEncoder{}
	}
	if len(opts.Red.Ranges) == 0 {
		opts.Red = DefaultRed
	}
	if len(opts.Nir.Ranges) == 0 {
		opts.Nir = DefaultNir
	}
	return &Engine{store: store, enc: enc, opts: opts}
}

// Make renders r with the named palette into the ndvi slot. Unknown or
// empty palette names select the custom palette. When r is nil or has no
// bands the previous render is returned with Stale set, unless the engine
// is strict.
func (e *Engine) Make(ctx context.Context, r raster.Raster, paletteName string) (*artifact.Artifact, error) {
	return e.MakeNamed(ctx, "", r, paletteName)
}

// MakeNamed is Make with the source name recorded in the manifest.
func (e *Engine) MakeNamed(ctx context.Context, source string, r raster.Raster, paletteName string) (*artifact.Artifact, error) {
	a, _, err := e.MakeZoned(ctx, source, r, paletteName, 0)
	return a, err
}

// MakeZoned is MakeNamed that also clusters the index into k zones when
// k > 0. Stale fallbacks carry no zones.
func (e *Engine) MakeZoned(ctx context.Context, source string, r raster.Raster, paletteName string, k int) (*artifact.Artifact, []Zone, error) {
	if err := raster.Usable(r); err != nil {
		a, err := e.fallback(source, err)
		return a, nil, err
	}
	idx, err := e.Compute(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	p, applied := e.palette(paletteName)
	a, err := e.store.Write(artifact.SlotNDVI, Colorize(Quantize(idx), p), e.enc, artifact.Meta{Source: source, Palette: applied})
	if err != nil {
		return nil, nil, fmt.Errorf("store ndvi: %w", err)
	}
	if k <= 0 {
		return a, nil, nil
	}
	zones, err := Zones(idx, k)
	if errors.Is(err, ErrNoValidPixels) {
		log.Warn("ndvi: no zones, index undefined everywhere", zap.String("source", source))
		return a, nil, nil
	}
	if err != nil {
		return a, nil, fmt.Errorf("ndvi zones: %w", err)
	}
	return a, zones, nil
}

func (e *Engine) fallback(source string, cause error) (*artifact.Artifact, error) {
	if e.opts.Strict {
		return nil, fmt.Errorf("ndvi %s: %w", source, cause)
	}
	log.Warn("ndvi: serving previous artifact", zap.String("source", source), zap.Error(cause))
	a, err := e.store.Latest(artifact.SlotNDVI)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return a, nil
}

func (e *Engine) palette(name string) (color.Palette, string) {
	p, applied := palette.ByName(name, e.opts.Seed)
	if applied == palette.CustomName && name != "" && name != palette.CustomName {
		log.Debug("ndvi: unknown palette, using custom", zap.String("palette", name))
	}
	return p, applied
}

// Render computes the paletted NDVI image and reports the palette applied.
func (e *Engine) Render(ctx context.Context, r raster.Raster, paletteName string) (*image.Paletted, string, error) {
	idx, err := e.Compute(ctx, r)
	if err != nil {
		return nil, "", err
	}
	p, applied := e.palette(paletteName)
	return Colorize(Quantize(idx), p), applied, nil
}

// Compute returns the index (nir-red)/(nir+red) per pixel. Cells with a
// zero denominator hold NaN or ±Inf.
func (e *Engine) Compute(ctx context.Context, r raster.Raster) (*mat.Dense, error) {
	if err := raster.Usable(r); err != nil {
		return nil, err
	}
	red, err := e.accumulate(ctx, r, e.opts.Red)
	if err != nil {
		return nil, err
	}
	nir, err := e.accumulate(ctx, r, e.opts.Nir)
	if err != nil {
		return nil, err
	}

	h, w := red.Dims()
	num := mat.NewDense(h, w, nil)
	num.Sub(nir, red)
	den := mat.NewDense(h, w, nil)
	den.Add(nir, red)
	num.DivElem(num, den)
	return num, nil
}

// accumulate sums the normalized bands of g. Bands beyond the raster are
// skipped.
func (e *Engine) accumulate(ctx context.Context, r raster.Raster, g raster.BandGroup) (*mat.Dense, error) {
	acc := mat.NewDense(r.Height(), r.Width(), nil)
	present, missing := g.Split(r.BandCount())
	if len(missing) > 0 {
		log.Warn("ndvi: bands missing from raster, skipped",
			zap.String("group", g.Name), zap.Ints("bands", missing), zap.Int("band_count", r.BandCount()))
	}

	data := acc.RawMatrix().Data
	for _, i := range present {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := r.ReadBand(i)
		if err != nil {
			return nil, fmt.Errorf("read %s band %d: %w", g.Name, i, err)
		}
		if len(b.Pix) != len(data) {
			return nil, fmt.Errorf("%s band %d: %w", g.Name, i, raster.ErrShapeMismatch)
		}
		for j, v := range b.Pix {
			data[j] += float64(v) / sampleScale
		}
	}
	return acc, nil
}

// Quantize maps the index from [-1,1] onto [0,255]: (v+1)*128, truncated
// and clamped. Undefined cells become Sentinel.
func Quantize(idx *mat.Dense) *image.Gray {
	h, w := idx.Dims()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x := range row {
			row[x] = quantize(idx.At(y, x))
		}
	}
	return g
}

func quantize(v float64) uint8 {
	s := (v + 1) * 128
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0):
		return Sentinel
	case s <= 0:
		return 0
	case s >= 255:
		return 255
	}
	return uint8(s)
}

// Colorize attaches p to the gray levels of g.
func Colorize(g *image.Gray, p color.Palette) *image.Paletted {
	img := image.NewPaletted(g.Rect, p)
	copy(img.Pix, g.Pix)
	return img
}
