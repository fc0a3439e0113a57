// Package profile holds named band layouts and render defaults for the
// sensors the toolkit knows about.
package profile

import (
	"sort"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"
)

// Profile defines how a sensor's bands map to the red and near-infrared
// channels, plus default render parameters.
type Profile struct {
	Name    string
	Red     []raster.BandRange
	Nir     []raster.BandRange
	Width   int    // thumbnail bound, 0 = native
	Height  int    // thumbnail bound, 0 = native
	Format  string // output format
	Quality int    // encoding quality 1-100, lossy formats only
	Palette string // default NDVI palette selector, "" = custom
}

// Default is the profile used for unknown names.
const Default = "reference"

// Built-in profiles.
var profiles = map[string]Profile{
	"reference": {
		Name:   "reference",
		Red:    []raster.BandRange{{First: 1, Last: 4}},
		Nir:    []raster.BandRange{{First: 5, Last: 10}},
		Format: "png",
	},
	"sentinel2": {
		Name:    "sentinel2",
		Red:     []raster.BandRange{{First: 4, Last: 4}},
		Nir:     []raster.BandRange{{First: 8, Last: 8}},
		Width:   1024,
		Height:  1024,
		Format:  "png",
		Quality: 85,
	},
	"landsat8": {
		Name:    "landsat8",
		Red:     []raster.BandRange{{First: 4, Last: 4}},
		Nir:     []raster.BandRange{{First: 5, Last: 5}},
		Width:   1024,
		Height:  1024,
		Format:  "png",
		Quality: 85,
	},
}

// Get returns a profile by name. Falls back to reference if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[Default]
	p.Name = name // preserve requested name
	return p
}

// Known reports whether name is a built-in profile.
func Known(name string) bool {
	_, ok := profiles[name]
	return ok
}

// Names lists built-in profiles in sorted order.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for n := range profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RedGroup returns the red band group of p.
func (p Profile) RedGroup() raster.BandGroup {
	return raster.BandGroup{Name: "red", Ranges: p.Red}
}

// NirGroup returns the near-infrared band group of p.
func (p Profile) NirGroup() raster.BandGroup {
	return raster.BandGroup{Name: "nir", Ranges: p.Nir}
}

// Box returns the thumbnail bounding box for a raster of the given native
// size. Zero bounds take the native dimension.
func (p Profile) Box(nativeW, nativeH int) (w, h int) {
	w, h = p.Width, p.Height
	if w <= 0 {
		w = nativeW
	}
	if h <= 0 {
		h = nativeH
	}
	return w, h
}
