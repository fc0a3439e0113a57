//go:build gdal

package cmd

import "github.com/polochinoc/Small-TIFF-API/internal/gdalraster"

func init() {
	drivers["gdal"] = gdalraster.OpenRaster
}
