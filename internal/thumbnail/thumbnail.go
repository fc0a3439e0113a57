// Package thumbnail renders a contrast-enhanced RGB preview of a
// multi-band raster.
//
// Every band is reduced to 8 bits, the bands are folded together with a
// progressive pairwise blend, and the composite is shrunk to fit the
// requested box before the contrast stretch. The result is gray painted on
// an RGB canvas, so R, G and B are equal everywhere.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	// DefaultBlendWeight is the share of each new band in the running blend.
	DefaultBlendWeight = 0.5
	// DefaultContrast is the contrast enhancement factor.
	DefaultContrast = 10.0
)

// Options configures a Compositor.
type Options struct {
	BlendWeight float32
	Contrast    float64
	// Strict turns a missing or band-less raster into an error instead of
	// serving the previous thumbnail.
	Strict  bool
	Quality int
}

// DefaultOptions returns the reference rendering parameters.
func DefaultOptions() Options {
	return Options{BlendWeight: DefaultBlendWeight, Contrast: DefaultContrast}
}

// Compositor renders thumbnails into the thumbnail slot of a store.
type Compositor struct {
	store *artifact.Store
	enc   encoder.Encoder
	opts  Options
}

// New creates a Compositor. A nil encoder writes PNG.
func New(store *artifact.Store, enc encoder.Encoder, opts Options) *Compositor {
	if enc == nil {
		enc = &encoder.PNGEncoder{}
	}
	if opts.BlendWeight == 0 {
		opts.BlendWeight = DefaultBlendWeight
	}
	if opts.Contrast == 0 {
		opts.Contrast = DefaultContrast
	}
	return &Compositor{store: store, enc: enc, opts: opts}
}

// Make renders r into the thumbnail slot. A zero width or height takes the
// native dimension. When r is nil or has no bands the previous thumbnail is
// returned with Stale set, unless the compositor is strict.
func (c *Compositor) Make(ctx context.Context, r raster.Raster, width, height int) (*artifact.Artifact, error) {
	return c.MakeNamed(ctx, "", r, width, height)
}

// MakeNamed is Make with the source name recorded in the manifest.
func (c *Compositor) MakeNamed(ctx context.Context, source string, r raster.Raster, width, height int) (*artifact.Artifact, error) {
	if err := raster.Usable(r); err != nil {
		return c.fallback(source, err)
	}

	img, err := c.Render(ctx, r, width, height)
	if err != nil {
		return nil, err
	}
	a, err := c.store.Write(artifact.SlotThumbnail, img, c.enc, artifact.Meta{Source: source, Quality: c.opts.Quality})
	if err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	return a, nil
}

func (c *Compositor) fallback(source string, cause error) (*artifact.Artifact, error) {
	if c.opts.Strict {
		return nil, fmt.Errorf("thumbnail %s: %w", source, cause)
	}
	log.Warn("thumbnail: serving previous artifact", zap.String("source", source), zap.Error(cause))
	a, err := c.store.Latest(artifact.SlotThumbnail)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return a, nil
}

// Render computes the thumbnail image without persisting it.
func (c *Compositor) Render(ctx context.Context, r raster.Raster, width, height int) (*image.RGBA, error) {
	if err := raster.Usable(r); err != nil {
		return nil, err
	}

	var composite *image.Gray
	for i := 1; i <= r.BandCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := r.ReadBand(i)
		if err != nil {
			return nil, fmt.Errorf("read band %d: %w", i, err)
		}
		if b.Width != r.Width() || b.Height != r.Height() || len(b.Pix) != b.Width*b.Height {
			return nil, fmt.Errorf("band %d: %w", i, raster.ErrShapeMismatch)
		}
		g := ToGray(b)
		if composite == nil {
			composite = g
			continue
		}
		Blend(composite, g, c.opts.BlendWeight)
	}

	if width <= 0 {
		width = composite.Rect.Dx()
	}
	if height <= 0 {
		height = composite.Rect.Dy()
	}
	small := Fit(composite, width, height)
	Contrast(small, c.opts.Contrast)

	out := image.NewRGBA(small.Rect)
	draw.Copy(out, out.Rect.Min, small, small.Rect, draw.Src, nil)

	log.Debug("thumbnail: rendered",
		zap.Int("bands", r.BandCount()),
		zap.Int("width", out.Rect.Dx()), zap.Int("height", out.Rect.Dy()))
	return out, nil
}
