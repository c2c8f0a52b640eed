// Package images provides the pixel-level operations behind the image
// conditioning pipeline: format detection, multi-format decoding, fit-mode
// resizing and EXIF orientation normalization.
package images

import (
	"bytes"
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatBMP is the Windows bitmap format.
	FormatBMP ImageFormat = "bmp"
	// FormatTIFF is the TIFF image format.
	FormatTIFF ImageFormat = "tiff"
	// FormatUnknown marks data that matched no known signature.
	FormatUnknown ImageFormat = "unknown"
)

// supportedExtensions maps file extensions to their image format.
var supportedExtensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".webp": FormatWebP,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// DetectFormat sniffs the leading magic bytes of an image buffer and returns
// the detected format. Returns FormatUnknown if no signature matches.
//
// Arguments:
// - data: The raw image bytes. Only the first few bytes are examined.
//
// Returns:
// - ImageFormat: The detected format, or FormatUnknown.
func DetectFormat(data []byte) ImageFormat {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case len(data) >= 2 && bytes.Equal(data[:2], []byte("BM")):
		return FormatBMP
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte{'I', 'I', 0x2A, 0x00}) || bytes.Equal(data[:4], []byte{'M', 'M', 0x00, 0x2A})):
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// FormatFromPath returns the image format implied by a file path's extension,
// or FormatUnknown for unrecognized extensions.
func FormatFromPath(path string) ImageFormat {
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := supportedExtensions[ext]; ok {
		return format
	}
	return FormatUnknown
}

// IsSupportedPath reports whether the file path has a supported image extension.
func IsSupportedPath(path string) bool {
	return FormatFromPath(path) != FormatUnknown
}
