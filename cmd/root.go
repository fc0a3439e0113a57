package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/polochinoc/Small-TIFF-API/internal/artifact"
	"github.com/polochinoc/Small-TIFF-API/internal/geotiff"
	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/profile"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"

	verbose     bool
	outDir      string
	strict      bool
	unique      bool
	profileName string
	redBands    string
	nirBands    string
	driverName  string
)

// drivers maps --driver names to raster openers. The gdal build tag adds
// "gdal".
var drivers = map[string]raster.Opener{
	"native": geotiff.OpenRaster,
}

var rootCmd = &cobra.Command{
	Use:   "tiffkit",
	Short: "Attributes, thumbnails and NDVI renders from GeoTIFF rasters",
	Long: `tiffkit reads multi-band GeoTIFF rasters and
reports their attributes, renders contrast-enhanced gray thumbnails, and
renders NDVI images through a selectable palette.

Rendered images are written to fixed slots (thumbnail.png, ndvi.png) in the
output directory, recorded in render.manifest.json. A raster that cannot be
read is answered with the previous render unless --strict is set.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := log.Setup(verbose); err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		if _, ok := drivers[driverName]; !ok {
			return fmt.Errorf("unknown driver %q (have %s)", driverName, strings.Join(driverNames(), ", "))
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVarP(&outDir, "out", "o", artifact.DefaultDir, "output directory for rendered slots")
	pf.BoolVar(&strict, "strict", false, "fail on unreadable or band-less rasters instead of serving the previous render")
	pf.BoolVar(&unique, "unique", false, "write every render to its own uuid-named file")
	pf.StringVarP(&profileName, "profile", "p", profile.Default, "band layout profile ("+strings.Join(profile.Names(), ", ")+")")
	pf.StringVar(&redBands, "red", "", "red band ranges, e.g. 1-4 (overrides profile)")
	pf.StringVar(&nirBands, "nir", "", "near-infrared band ranges, e.g. 5-10 (overrides profile)")
	pf.StringVar(&driverName, "driver", "native", "raster driver")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"tiffkit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func driverNames() []string {
	out := make([]string, 0, len(drivers))
	for n := range drivers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// openRaster opens path with the selected driver. Failures are logged and
// yield a nil raster so the operations apply their fallback.
func openRaster(path string) raster.Raster {
	r, err := drivers[driverName](path)
	if err != nil {
		log.Warn("tiffkit: open raster", zap.String("path", path), zap.Error(err))
		return nil
	}
	return r
}

// activeProfile returns the selected profile with --red/--nir applied.
func activeProfile() (profile.Profile, error) {
	if !profile.Known(profileName) {
		log.Warn("tiffkit: unknown profile, using reference layout", zap.String("profile", profileName))
	}
	p := profile.Get(profileName)
	if redBands != "" {
		rs, err := raster.ParseRanges(redBands)
		if err != nil {
			return p, fmt.Errorf("--red: %w", err)
		}
		p.Red = rs
	}
	if nirBands != "" {
		rs, err := raster.ParseRanges(nirBands)
		if err != nil {
			return p, fmt.Errorf("--nir: %w", err)
		}
		p.Nir = rs
	}
	return p, nil
}

func openStore(forceUnique bool) (*artifact.Store, error) {
	return artifact.NewStore(outDir, unique || forceUnique)
}
