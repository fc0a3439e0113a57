//go:build gdal

// Package gdalraster opens rasters through the GDAL C library. It is only
// built with the "gdal" tag and needs libgdal at link time.
package gdalraster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/polochinoc/Small-TIFF-API/internal/log"
	"github.com/polochinoc/Small-TIFF-API/internal/raster"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

var (
	ErrOpen     = errors.New("gdal open failed")
	ErrDataType = errors.New("unsupported band data type")
)

const logTag = "gdalraster: "

// Open reads every band of the dataset at path into memory.
func Open(path string) (*raster.Memory, error) {
	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		log.Error(logTag+"open failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", path, ErrOpen)
	}
	defer ds.Close()

	gt := ds.GeoTransform()
	m := &raster.Memory{
		W:         ds.RasterXSize(),
		H:         ds.RasterYSize(),
		Transform: raster.GeoTransform{A: gt[1], B: gt[2], C: gt[0], D: gt[4], E: gt[5], F: gt[3]},
	}
	m.CRSCode = epsgOf(ds.Projection())

	n := ds.RasterCount()
	log.Info(logTag+"start read raster", zap.Int("bands", n), zap.Int("width", m.W), zap.Int("height", m.H))
	for i := 1; i <= n; i++ {
		band := ds.RasterBand(i)
		depth, err := bitDepth(band.RasterDataType())
		if err != nil {
			log.Error(logTag+"band data type", zap.Int("band", i), zap.String("dt", band.RasterDataType().Name()))
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		b := raster.NewBand(m.W, m.H, depth)
		if err := band.IO(gdal.Read, 0, 0, m.W, m.H, b.Pix, m.W, m.H, 0, 0); err != nil {
			log.Error(logTag+"read band failed", zap.Int("band", i), zap.Error(err))
			return nil, fmt.Errorf("read band %d: %w", i, err)
		}
		m.Bands = append(m.Bands, b)
	}
	return m, nil
}

// OpenRaster is Open as a raster.Opener.
func OpenRaster(path string) (raster.Raster, error) {
	m, err := Open(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func bitDepth(dt gdal.DataType) (int, error) {
	switch dt {
	case gdal.Byte:
		return 8, nil
	case gdal.UInt16:
		return 16, nil
	case gdal.UInt32:
		return 32, nil
	}
	return 0, ErrDataType
}

// epsgOf returns "epsg:<code>" for a WKT whose root carries an EPSG authority.
func epsgOf(wkt string) string {
	if wkt == "" {
		return ""
	}
	sr := gdal.CreateSpatialReference(wkt)
	defer sr.Destroy()
	_ = sr.AutoIdentifyEPSG()
	name, ok := sr.AttrValue("AUTHORITY", 0)
	if !ok || !strings.EqualFold(name, "EPSG") {
		return ""
	}
	code, ok := sr.AttrValue("AUTHORITY", 1)
	if !ok {
		return ""
	}
	return "epsg:" + code
}
