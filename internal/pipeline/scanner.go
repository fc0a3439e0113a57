package pipeline

import (
	"os"
	"path/filepath"
	"strings"
)

// Source represents a discovered raster file.
type Source struct {
	// AbsPath is the path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory.
	RelPath string
	// Key is the relative path without extension, using forward slashes.
	Key string
	// Size is the file size in bytes.
	Size int64
}

// rasterExtensions lists recognized raster file extensions.
var rasterExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
}

// ScanRasters walks the input directory and returns all raster sources.
func ScanRasters(inputDir string) ([]Source, error) {
	var sources []Source

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories.
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !rasterExtensions[ext] {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: filepath.ToSlash(relPath),
			Key:     filepath.ToSlash(strings.TrimSuffix(relPath, filepath.Ext(relPath))),
			Size:    info.Size(),
		})
		return nil
	})

	return sources, err
}

// FileSources describes explicitly named files.
func FileSources(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		base := filepath.Base(p)
		sources = append(sources, Source{
			AbsPath: p,
			RelPath: filepath.ToSlash(p),
			Key:     strings.TrimSuffix(base, filepath.Ext(base)),
			Size:    info.Size(),
		})
	}
	return sources, nil
}
