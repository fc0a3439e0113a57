package raster

import "fmt"

// Memory is a Raster whose bands are already held in memory. Decoders
// return it and tests build it directly.
type Memory struct {
	W, H      int
	Bands     []*Band
	CRSCode   string
	Transform GeoTransform
}

// NewMemory creates a raster of n zeroed bands with identity georeferencing.
func NewMemory(w, h, n, bitDepth int) *Memory {
	m := &Memory{W: w, H: h, Transform: Identity}
	for i := 0; i < n; i++ {
		m.Bands = append(m.Bands, NewBand(w, h, bitDepth))
	}
	return m
}

func (m *Memory) Width() int     { return m.W }
func (m *Memory) Height() int    { return m.H }
func (m *Memory) BandCount() int { return len(m.Bands) }

func (m *Memory) ReadBand(i int) (*Band, error) {
	if i < 1 || i > len(m.Bands) {
		return nil, fmt.Errorf("read band %d of %d: %w", i, len(m.Bands), ErrBandIndex)
	}
	b := m.Bands[i-1]
	if b.Width != m.W || b.Height != m.H {
		return nil, fmt.Errorf("band %d is %dx%d, raster is %dx%d: %w", i, b.Width, b.Height, m.W, m.H, ErrShapeMismatch)
	}
	return b, nil
}

func (m *Memory) CRS() (string, bool) { return m.CRSCode, m.CRSCode != "" }

func (m *Memory) Bounds() Bounds { return m.Transform.Bounds(m.W, m.H) }

// Fill sets every sample of band i (1-based) to v.
func (m *Memory) Fill(i int, v uint32) {
	pix := m.Bands[i-1].Pix
	for j := range pix {
		pix[j] = v
	}
}
