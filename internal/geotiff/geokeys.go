package geotiff

import (
	"fmt"

	"github.com/polochinoc/Small-TIFF-API/internal/raster"
)

type geoKeys map[uint16]uint64

// readGeoKeys decodes the short-valued entries of the GeoKeyDirectory.
// Keys stored in the double or ASCII parameter tags are not needed here.
func readGeoKeys(d *ifd) geoKeys {
	dir := d.uints(tGeoKeyDirectory)
	if len(dir) < 4 {
		return nil
	}
	n := int(dir[3])
	keys := make(geoKeys, n)
	for i := 0; i < n && 4+4*i+3 < len(dir); i++ {
		e := dir[4+4*i : 8+4*i]
		if e[1] == 0 {
			keys[uint16(e[0])] = e[3]
		}
	}
	return keys
}

// crs reports the EPSG identifier in rasterio's "epsg:<code>" form.
func (k geoKeys) crs() (string, bool) {
	if code, ok := k[gkProjectedType]; ok && code > 0 && code < userDefined {
		return fmt.Sprintf("epsg:%d", code), true
	}
	if k[gkModelType] == modelTypeProjected {
		return "", false
	}
	if code, ok := k[gkGeographicType]; ok && code > 0 && code < userDefined {
		return fmt.Sprintf("epsg:%d", code), true
	}
	return "", false
}

// geoTransform derives the pixel-to-world transform the way GDAL does:
// ModelTransformation wins over tiepoint+scale, and PixelIsPoint rasters
// are shifted by half a pixel so the transform addresses pixel corners.
func geoTransform(d *ifd, k geoKeys) raster.GeoTransform {
	var gt raster.GeoTransform
	if m := d.floats(tModelTransformation); len(m) >= 8 {
		gt = raster.GeoTransform{A: m[0], B: m[1], C: m[3], D: m[4], E: m[5], F: m[7]}
	} else {
		tp, sc := d.floats(tModelTiepoint), d.floats(tModelPixelScale)
		if len(tp) < 6 || len(sc) < 2 {
			return raster.Identity
		}
		gt = raster.GeoTransform{
			A: sc[0],
			C: tp[3] - tp[0]*sc[0],
			E: -sc[1],
			F: tp[4] + tp[1]*sc[1],
		}
	}
	if k[gkRasterType] == rasterPixelIsPoint {
		gt.C -= 0.5*gt.A + 0.5*gt.B
		gt.F -= 0.5*gt.D + 0.5*gt.E
	}
	return gt
}
