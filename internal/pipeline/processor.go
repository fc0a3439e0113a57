package pipeline

import (
	"context"
	"fmt"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/ndvi"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"
)

// Result holds the outcome of processing a single source raster.
type Result struct {
	Source    Source
	Thumbnail *artifact.Artifact
	NDVI      *artifact.Artifact
	Zones     []ndvi.Zone
	Err       error
}

// processRaster opens one raster and renders the requested products.
func (p *Pipeline) processRaster(ctx context.Context, src Source) Result {
	result := Result{Source: src}

	r, err := p.cfg.Open(src.AbsPath)
	if err != nil {
		result.Err = fmt.Errorf("open %s: %w", src.RelPath, err)
		return result
	}
	if err := raster.Usable(r); err != nil {
		result.Err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	if p.thumbs != nil {
		result.Thumbnail, err = p.thumbs.MakeNamed(ctx, src.RelPath, r, p.cfg.Width, p.cfg.Height)
		if err != nil {
			result.Err = fmt.Errorf("thumbnail %s: %w", src.RelPath, err)
			return result
		}
	}
	if p.ndvi != nil {
		result.NDVI, result.Zones, err = p.ndvi.MakeZoned(ctx, src.RelPath, r, p.cfg.Palette, p.cfg.Zones)
		if err != nil {
			result.Err = fmt.Errorf("ndvi %s: %w", src.RelPath, err)
			return result
		}
	}
	return result
}
