package geotiff

// TIFF header.
const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"

	ifdEntryLen = 12
)

// Field types.
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndefined = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
)

var typeLen = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Baseline and extension tags.
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262
	tStripOffsets              = 273
	tSamplesPerPixel           = 277
	tRowsPerStrip              = 278
	tStripByteCounts           = 279
	tPlanarConfiguration       = 284
	tPredictor                 = 317
	tTileWidth                 = 322
	tTileLength                = 323
	tTileOffsets               = 324
	tTileByteCounts            = 325
	tSampleFormat              = 339
)

// GeoTIFF tags.
const (
	tModelPixelScale     = 33550
	tModelTiepoint       = 33922
	tModelTransformation = 34264
	tGeoKeyDirectory     = 34735
	tGeoDoubleParams     = 34736
	tGeoASCIIParams      = 34737
	tGDALNoData          = 42113
)

// Geo keys.
const (
	gkModelType      = 1024
	gkRasterType     = 1025
	gkGeographicType = 2048
	gkProjectedType  = 3072

	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsPoint  = 2
	userDefined         = 32767
)

// Compression schemes.
type Compression uint16

const (
	CompressionNone     Compression = 1
	CompressionLZW      Compression = 5
	CompressionDeflate  Compression = 8
	CompressionPackBits Compression = 32773
	CompressionDeflate2 Compression = 32946
	CompressionZSTD     Compression = 50000
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZW:
		return "lzw"
	case CompressionDeflate, CompressionDeflate2:
		return "deflate"
	case CompressionPackBits:
		return "packbits"
	case CompressionZSTD:
		return "zstd"
	}
	return "unknown"
}

// maxRatio is the largest expansion one block can undergo, or 0 when the
// scheme has no practical bound.
func (c Compression) maxRatio() uint64 {
	switch c {
	case CompressionNone:
		return 1
	case CompressionPackBits:
		return 64
	case CompressionDeflate, CompressionDeflate2:
		return 1032
	case CompressionLZW:
		return 1 << 12
	}
	return 0
}

const (
	planarChunky   = 1
	planarSeparate = 2

	predictorNone       = 1
	predictorHorizontal = 2

	sampleFormatUint = 1

	photometricPalette = 3
)
