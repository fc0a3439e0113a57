package raster

import "errors"

var (
	ErrBandIndex     = errors.New("band index out of range")
	ErrShapeMismatch = errors.New("band shape mismatch")
	ErrInvalidRange  = errors.New("invalid band range")
	ErrNoInput       = errors.New("no input raster")
	ErrNoBands       = errors.New("raster has no bands")
	ErrEmpty         = errors.New("raster has no pixels")
)

// Usable returns the sentinel explaining why r cannot be rendered, or nil.
func Usable(r Raster) error {
	if r == nil {
		return ErrNoInput
	}
	if r.BandCount() == 0 {
		return ErrNoBands
	}
	if r.Width() <= 0 || r.Height() <= 0 {
		return ErrEmpty
	}
	return nil
}
