package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/polochinoc/Small-TIFF-API/internal/ndvi"
	"github.com/polochinoc/Small-TIFF-API/internal/palette"
	"github.com/polochinoc/Small-TIFF-API/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	ndviPalette string
	ndviZones   int
	ndviSeed    uint64
	ndviWorkers int
)

var ndviCmd = &cobra.Command{
	Use:   "ndvi <raster.tif>...",
	Short: "Render the normalized difference vegetation index",
	Long: `Sums the red and near-infrared band groups of the profile, computes
(nir-red)/(nir+red), scales it to 8 bits and writes it as an indexed PNG to
the ndvi slot. Pixels where the index is undefined are written as 128.

Palettes: ` + strings.Join(palette.Names, ", ") + `. Any other name selects the
custom vegetation palette.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNDVI,
}

func init() {
	f := ndviCmd.Flags()
	f.StringVar(&ndviPalette, "palette", "", "palette name (default: custom)")
	f.IntVar(&ndviZones, "zones", 0, "cluster the index into k zones and report them (0 = off)")
	f.Uint64Var(&ndviSeed, "seed", 0, "seed of the random palette (0 = clock)")
	f.IntVarP(&ndviWorkers, "workers", "w", 0, "parallel workers for several rasters (0 = NumCPU)")
	rootCmd.AddCommand(ndviCmd)
}

func runNDVI(cmd *cobra.Command, args []string) error {
	prof, err := activeProfile()
	if err != nil {
		return err
	}
	pal := ndviPalette
	if pal == "" {
		pal = prof.Palette
	}
	store, err := openStore(len(args) > 1)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		results, err := pipeline.New(pipeline.Config{
			Paths:   args,
			Store:   store,
			Open:    drivers[driverName],
			Profile: prof,
			Workers: ndviWorkers,
			NDVI:    true,
			Palette: pal,
			Zones:   ndviZones,
			Seed:    ndviSeed,
		}).Run(ctxOf(cmd))
		printBatch(results, store.Dir)
		return err
	}

	eng := ndvi.New(store, nil, ndvi.Options{
		Red:    prof.RedGroup(),
		Nir:    prof.NirGroup(),
		Seed:   ndviSeed,
		Strict: strict,
	})
	a, zones, err := eng.MakeZoned(ctxOf(cmd), filepath.Base(args[0]), openRaster(args[0]), pal, ndviZones)
	if err != nil {
		return fmt.Errorf("ndvi: %w", err)
	}
	fmt.Println()
	printArtifact(a, store.Dir)
	printZones(zones)
	fmt.Println()
	return nil
}

func printZones(zones []ndvi.Zone) {
	if len(zones) == 0 {
		return
	}
	p := newPrinter()
	p.Printf("    %-11s %8s %8s %8s %7s\n", "zone", "center", "min", "max", "share")
	for _, z := range zones {
		p.Printf("    %-11s %8.3f %8.3f %8.3f %6.1f%%\n", z.Label, z.Center, z.Min, z.Max, z.Share*100)
	}
}
