package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Decode decodes an image buffer into an image.Image, dispatching on the
// sniffed magic bytes rather than trusting the file extension.
//
// Arguments:
// - data: The raw image bytes (JPEG, PNG, WebP, BMP or TIFF).
//
// Returns:
// - image.Image: The decoded image.
// - ImageFormat: The format that was detected and decoded.
// - error: An error if the data is empty, unrecognized or corrupt.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, FormatUnknown, errors.New("empty image data")
	}

	format := DetectFormat(data)

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	case FormatBMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	case FormatTIFF:
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		return nil, FormatUnknown, errors.New("unrecognized image signature")
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "failed to decode %s image", format)
	}

	return img, format, nil
}
