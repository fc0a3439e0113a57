package geotiff

import "errors"

var (
	ErrNotTIFF     = errors.New("not a TIFF file")
	ErrUnsupported = errors.New("unsupported TIFF layout")
	ErrCorrupt     = errors.New("corrupt TIFF data")
	ErrTooLarge    = errors.New("raster exceeds decode limit")
)
