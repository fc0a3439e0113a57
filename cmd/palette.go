package cmd

import (
	"fmt"
	"os"

	"github.com/polochinoc/Small-TIFF-API/internal/encoder"
	"github.com/polochinoc/Small-TIFF-API/internal/palette"

	"github.com/spf13/cobra"
)

var (
	paletteSwatch string
	paletteWidth  int
	paletteHeight int
	paletteSeed   uint64
	paletteList   bool
)

var paletteCmd = &cobra.Command{
	Use:   "palette [name]",
	Short: "Show an NDVI palette or write it as a swatch image",
	Long: `Prints the 256 entries of a palette ordered by lightness. Without a
name, or with an unknown one, the custom vegetation palette is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPalette,
}

func init() {
	f := paletteCmd.Flags()
	f.StringVar(&paletteSwatch, "swatch", "", "write a PNG swatch strip to this path")
	f.IntVar(&paletteWidth, "swatch-width", 512, "swatch width")
	f.IntVar(&paletteHeight, "swatch-height", 32, "swatch height")
	f.Uint64Var(&paletteSeed, "seed", 0, "seed of the random palette (0 = clock)")
	f.BoolVar(&paletteList, "list", false, "list palette names")
	rootCmd.AddCommand(paletteCmd)
}

func runPalette(_ *cobra.Command, args []string) error {
	if paletteList {
		for _, n := range palette.Names {
			fmt.Println(n)
		}
		fmt.Println(palette.CustomName)
		return nil
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	p, applied := palette.ByName(name, paletteSeed)

	if paletteSwatch != "" {
		data, err := (&encoder.PNGEncoder{}).Encode(palette.Swatch(p, paletteWidth, paletteHeight), 0)
		if err != nil {
			return fmt.Errorf("encode swatch: %w", err)
		}
		if err := os.WriteFile(paletteSwatch, data, 0o644); err != nil {
			return fmt.Errorf("write swatch: %w", err)
		}
		fmt.Printf("  %s swatch written to %s\n", applied, paletteSwatch)
		return nil
	}

	fmt.Printf("  palette %s (%d entries, darkest first)\n\n", applied, len(p))
	for _, e := range palette.Describe(p) {
		fmt.Printf("  %3d  %s  L*=%6.2f a*=%7.2f b*=%7.2f\n", e.Index, e.Hex, e.L*100, e.A*100, e.B*100)
	}
	return nil
}
