// Package raster defines the band-oriented view of a georeferenced raster
// that the rendering code consumes, independent of the file decoder.
package raster

// Raster is an opened multi-band raster. Band indices are 1-based.
type Raster interface {
	Width() int
	Height() int
	BandCount() int
	// ReadBand returns band i (1..BandCount) fully materialized.
	ReadBand(i int) (*Band, error)
	// CRS returns the coordinate reference identifier, e.g. "epsg:4326".
	CRS() (string, bool)
	Bounds() Bounds
}

// Opener opens the raster stored at path.
type Opener func(path string) (Raster, error)

// Band is one spectral channel stored row-major.
type Band struct {
	Width    int
	Height   int
	BitDepth int      // 8, 16 or 32
	Pix      []uint32 // len == Width*Height
}

// NewBand allocates a zeroed band.
func NewBand(w, h, bitDepth int) *Band {
	return &Band{Width: w, Height: h, BitDepth: bitDepth, Pix: make([]uint32, w*h)}
}

// At returns the sample at column x, row y.
func (b *Band) At(x, y int) uint32 { return b.Pix[y*b.Width+x] }

// Bounds is a georeferenced bounding box in the raster CRS units.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// GeoTransform is the affine pixel-to-world transform
// (x = C + A*col + B*row, y = F + D*col + E*row).
type GeoTransform struct {
	A, B, C float64
	D, E, F float64
}

// Identity is the transform of a raster without georeferencing.
var Identity = GeoTransform{A: 1, E: 1}

// Apply maps a pixel corner to world coordinates.
func (t GeoTransform) Apply(col, row float64) (x, y float64) {
	return t.C + t.A*col + t.B*row, t.F + t.D*col + t.E*row
}

// Bounds computes the extent of a w×h raster under t.
func (t GeoTransform) Bounds(w, h int) Bounds {
	fw, fh := float64(w), float64(h)
	if t.B == 0 && t.D == 0 {
		return Bounds{MinX: t.C, MinY: t.F + t.E*fh, MaxX: t.C + t.A*fw, MaxY: t.F}
	}
	var bb Bounds
	for i, c := range [4][2]float64{{0, 0}, {0, fh}, {fw, fh}, {fw, 0}} {
		x, y := t.Apply(c[0], c[1])
		if i == 0 {
			bb = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
			continue
		}
		bb.MinX = min(bb.MinX, x)
		bb.MinY = min(bb.MinY, y)
		bb.MaxX = max(bb.MaxX, x)
		bb.MaxY = max(bb.MaxY, y)
	}
	return bb
}
