package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/polochinoc/Small-TIFF-API/internal/attributes"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"github.com/spf13/cobra"
)

var (
	attrBands bool
	attrJSON  bool
)

var attributesCmd = &cobra.Command{
	Use:   "attributes <raster.tif>",
	Short: "Report size, band count, CRS and bounding box of a raster",
	Long: `Reports the width, height, band count, coordinate reference system
and georeferenced bounding box of a raster. A raster that cannot be read
produces an empty record {} unless --strict is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttributes,
}

func init() {
	attributesCmd.Flags().BoolVar(&attrBands, "bands", false, "include per-band sample statistics")
	attributesCmd.Flags().BoolVar(&attrJSON, "json", false, "print the record as JSON")
	rootCmd.AddCommand(attributesCmd)
}

func runAttributes(_ *cobra.Command, args []string) error {
	r := openRaster(args[0])
	if r == nil && strict {
		return fmt.Errorf("%s: %w", args[0], raster.ErrNoInput)
	}

	rec := attributes.Report(r)
	if attrBands {
		var err error
		if rec, err = attributes.Describe(r); err != nil {
			return err
		}
	}

	if attrJSON || rec.Empty() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	printAttributes(args[0], rec)
	return nil
}

func printAttributes(name string, rec attributes.Record) {
	p := newPrinter()
	bb := rec.BoundingBox
	fmt.Println()
	p.Printf("  Raster:       %s\n", name)
	p.Printf("  Size:         %d × %d px\n", rec.Width, rec.Height)
	p.Printf("  Bands:        %d\n", rec.BandCount)
	p.Printf("  CRS:          %s\n", rec.CRS)
	p.Printf("  Bounds:       (%.6f, %.6f) – (%.6f, %.6f)\n", bb.MinX, bb.MinY, bb.MaxX, bb.MaxY)
	if len(rec.Bands) > 0 {
		fmt.Println()
		p.Printf("  %-5s %5s %10s %10s %12s %12s\n", "band", "bits", "min", "max", "mean", "stddev")
		for _, b := range rec.Bands {
			p.Printf("  %-5d %5d %10d %10d %12.2f %12.2f\n", b.Index, b.BitDepth, b.Min, b.Max, b.Mean, b.StdDev)
		}
	}
	fmt.Println()
}
