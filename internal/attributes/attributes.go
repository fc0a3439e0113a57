// Package attributes reports the descriptive metadata of a raster.
package attributes

import (
	"fmt"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"gonum.org/v1/gonum/stat"
)

// UnspecifiedCRS is reported for rasters without a coordinate reference.
const UnspecifiedCRS = "unspecified"

// Record is the attribute report of one raster. The zero Record, produced
// for a raster that could not be opened, marshals to {}.
type Record struct {
	*Info
	Bands []BandInfo `json:"bands,omitempty"`
}

// Info holds the geometric attributes.
type Info struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	BandCount   int           `json:"band_count"`
	CRS         string        `json:"crs"`
	BoundingBox raster.Bounds `json:"bounding_box"`
}

// BandInfo summarizes the samples of one band.
type BandInfo struct {
	Index    int     `json:"index"`
	BitDepth int     `json:"bit_depth"`
	Min      uint32  `json:"min"`
	Max      uint32  `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
}

// Empty reports whether the record describes no raster.
func (r Record) Empty() bool { return r.Info == nil }

// Report maps r onto a Record. A nil raster yields the empty record.
func Report(r raster.Raster) Record {
	if r == nil {
		return Record{}
	}
	crs, ok := r.CRS()
	if !ok || crs == "" {
		crs = UnspecifiedCRS
	}
	return Record{Info: &Info{
		Width:       r.Width(),
		Height:      r.Height(),
		BandCount:   r.BandCount(),
		CRS:         crs,
		BoundingBox: r.Bounds(),
	}}
}

// Describe is Report with per-band sample statistics.
func Describe(r raster.Raster) (Record, error) {
	rec := Report(r)
	if rec.Empty() {
		return rec, nil
	}
	for i := 1; i <= r.BandCount(); i++ {
		b, err := r.ReadBand(i)
		if err != nil {
			return rec, fmt.Errorf("describe band %d: %w", i, err)
		}
		rec.Bands = append(rec.Bands, describeBand(i, b))
	}
	return rec, nil
}

func describeBand(i int, b *raster.Band) BandInfo {
	info := BandInfo{Index: i, BitDepth: b.BitDepth}
	if len(b.Pix) == 0 {
		return info
	}
	vals := make([]float64, len(b.Pix))
	info.Min, info.Max = b.Pix[0], b.Pix[0]
	for j, v := range b.Pix {
		vals[j] = float64(v)
		info.Min = min(info.Min, v)
		info.Max = max(info.Max, v)
	}
	info.Mean, info.StdDev = stat.PopMeanStdDev(vals, nil)
	return info
}
