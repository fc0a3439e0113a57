package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/pipeline"
	"github.com/polochinoc/Small-TIFF-API/internal/thumbnail"

	"github.com/spf13/cobra"
)

var (
	thumbWidth   int
	thumbHeight  int
	thumbFormat  string
	thumbQuality int
	thumbWorkers int
)

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <raster.tif>...",
	Short: "Render a contrast-enhanced gray RGB thumbnail",
	Long: `Blends every band of the raster into one gray image, shrinks it to fit
inside --width × --height preserving the aspect ratio, stretches the
contrast and writes it as RGB to the thumbnail slot.

With several rasters each render gets its own uuid-named file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runThumbnail,
}

func init() {
	f := thumbnailCmd.Flags()
	f.IntVar(&thumbWidth, "width", 0, "bounding box width (0 = profile or native)")
	f.IntVar(&thumbHeight, "height", 0, "bounding box height (0 = profile or native)")
	f.StringVarP(&thumbFormat, "format", "f", "", "output format (png, jpeg; default from profile)")
	f.IntVarP(&thumbQuality, "quality", "q", 0, "quality 1-100 for lossy formats (0 = profile default)")
	f.IntVarP(&thumbWorkers, "workers", "w", 0, "parallel workers for several rasters (0 = NumCPU)")
	rootCmd.AddCommand(thumbnailCmd)
}

func runThumbnail(cmd *cobra.Command, args []string) error {
	prof, err := activeProfile()
	if err != nil {
		return err
	}
	if thumbQuality > 0 {
		prof.Quality = thumbQuality
	}
	format := thumbFormat
	if format == "" {
		format = prof.Format
	}
	enc, err := encoder.NewRegistry().Resolve(format, false)
	if err != nil {
		return err
	}
	width, height := thumbWidth, thumbHeight
	if width == 0 && height == 0 {
		width, height = prof.Width, prof.Height
	}

	store, err := openStore(len(args) > 1)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		results, err := pipeline.New(pipeline.Config{
			Paths:     args,
			Store:     store,
			Open:      drivers[driverName],
			Profile:   prof,
			Workers:   thumbWorkers,
			Thumbnail: true,
			Width:     width,
			Height:    height,
			Encoder:   enc,
		}).Run(ctxOf(cmd))
		printBatch(results, store.Dir)
		return err
	}

	opts := thumbnail.DefaultOptions()
	opts.Strict = strict
	opts.Quality = prof.Quality
	a, err := thumbnail.New(store, enc, opts).MakeNamed(ctxOf(cmd), filepath.Base(args[0]), openRaster(args[0]), width, height)
	if err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	fmt.Println()
	printArtifact(a, store.Dir)
	fmt.Println()
	return nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printBatch(results []pipeline.Result, dir string) {
	p := newPrinter()
	var ok int
	fmt.Println()
	for _, r := range results {
		if r.Err != nil {
			p.Printf("  ✗ %-40s %v\n", truncKey(r.Source.RelPath, 40), r.Err)
			continue
		}
		ok++
		p.Printf("  ✓ %s\n", truncKey(r.Source.RelPath, 60))
		if r.Thumbnail != nil {
			printArtifact(r.Thumbnail, dir)
		}
		if r.NDVI != nil {
			printArtifact(r.NDVI, dir)
		}
		printZones(r.Zones)
	}
	fmt.Println()
	p.Printf("  %d of %d rasters rendered\n\n", ok, len(results))
}
