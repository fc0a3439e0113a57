// Package pipeline renders many rasters concurrently into an artifact
// store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/geotiff"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/ndvi"
	"github.com/polochinoc/Small-TIFF-API/internal/profile"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"
	"github.com/polochinoc/Small-TIFF-API/internal/thumbnail"

	"go.uber.org/zap"
)

var ErrNoSources = errors.New("no rasters found")

// Config holds all parameters for a batch run.
type Config struct {
	InputDir string
	Paths    []string // explicit files; InputDir is scanned when empty
	Store    *artifact.Store
	Open     raster.Opener
	Profile  profile.Profile
	Workers  int

	Thumbnail     bool
	Width, Height int
	Encoder       encoder.Encoder // thumbnail encoder, nil = PNG

	NDVI    bool
	Palette string
	Zones   int // k-means zones per raster, 0 = none
	Seed    uint64
	Red     *raster.BandGroup // overrides the profile
	Nir     *raster.BandGroup // overrides the profile
}

// Pipeline orchestrates raster processing.
type Pipeline struct {
	cfg    Config
	thumbs *thumbnail.Compositor
	ndvi   *ndvi.Engine
}

// New creates a configured pipeline. Batch runs never serve stale
// artifacts: a raster that cannot be rendered is reported as an error.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Open == nil {
		cfg.Open = geotiff.OpenRaster
	}
	p := &Pipeline{cfg: cfg}
	if cfg.Thumbnail {
		opts := thumbnail.DefaultOptions()
		opts.Strict = true
		opts.Quality = cfg.Profile.Quality
		p.thumbs = thumbnail.New(cfg.Store, cfg.Encoder, opts)
	}
	if cfg.NDVI {
		opts := ndvi.Options{
			Red:    cfg.Profile.RedGroup(),
			Nir:    cfg.Profile.NirGroup(),
			Seed:   cfg.Seed,
			Strict: true,
		}
		if cfg.Red != nil {
			opts.Red = *cfg.Red
		}
		if cfg.Nir != nil {
			opts.Nir = *cfg.Nir
		}
		p.ndvi = ndvi.New(cfg.Store, nil, opts)
	}
	return p
}

// Run processes every source and returns one result per source in input
// order. It fails only when nothing was rendered.
func (p *Pipeline) Run(ctx context.Context) ([]Result, error) {
	sources, err := p.sources()
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: start", zap.Int("rasters", len(sources)), zap.Int("workers", p.cfg.Workers),
		zap.String("profile", p.cfg.Profile.Name))

	results := make([]Result, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			select {
			case sem <- struct{}{}: // acquire
			case <-ctx.Done():
				results[idx] = Result{Source: s, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }() // release

			log.Debug("pipeline: processing", zap.String("source", s.RelPath))
			results[idx] = p.processRaster(ctx, s)
			if results[idx].Err == nil {
				log.Debug("pipeline: done", zap.String("source", s.RelPath))
			}
		}(i, src)
	}
	wg.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Error("pipeline: raster failed", zap.String("source", r.Source.RelPath), zap.Error(r.Err))
		}
	}
	if failed == len(results) {
		return results, fmt.Errorf("all %d rasters failed to process", failed)
	}
	if failed > 0 {
		log.Warn("pipeline: partial failure", zap.Int("failed", failed), zap.Int("total", len(results)))
	}
	return results, nil
}

func (p *Pipeline) sources() ([]Source, error) {
	var (
		sources []Source
		err     error
	)
	if len(p.cfg.Paths) > 0 {
		sources, err = FileSources(p.cfg.Paths)
	} else {
		sources, err = ScanRasters(p.cfg.InputDir)
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: %w", p.cfg.InputDir, ErrNoSources)
	}
	return sources, nil
}
