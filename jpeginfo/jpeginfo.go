// Package jpeginfo inspects JPEG structure at the marker level: frame
// dimensions, baseline vs progressive encoding class, and the EXIF
// orientation tag. The target radios decode SOF0 only, so the encoding
// class check is part of the output contract, not just a diagnostic.
package jpeginfo

import (
	"bytes"
	"io"

	jseg "github.com/garyhouston/jpegsegs"
	tiff "github.com/garyhouston/tiff66"
	"github.com/pkg/errors"
)

// exifPrefix introduces the TIFF block inside an APP1 segment.
var exifPrefix = []byte("Exif\x00\x00")

// TIFF tag 0x0112, SHORT, first value is the orientation.
const orientationTag = 0x0112

// Info summarizes the frame header of a JPEG stream.
type Info struct {
	// Width is the frame width in pixels.
	Width int
	// Height is the frame height in pixels.
	Height int
	// SOF is the start-of-frame marker that was found (SOF0-SOF15).
	SOF jseg.Marker
	// Progressive is true for progressive encoding classes (SOF2 family),
	// which the target hardware cannot decode.
	Progressive bool
	// Orientation is the EXIF orientation tag value, 0 if absent.
	Orientation int
}

// Baseline reports whether the frame uses sequential baseline encoding (SOF0).
func (i Info) Baseline() bool {
	return i.SOF == jseg.SOF0
}

// Scan reads JPEG markers up to the start of scan data and extracts the frame
// header and EXIF orientation.
//
// Arguments:
// - r: A reader positioned at the start of the JPEG stream.
//
// Returns:
// - Info: The frame summary.
// - error: An error if the stream is not a JPEG or ends before a frame header.
func Scan(r io.Reader) (Info, error) {
	var info Info

	// jseg.NewScanner requires an io.ReadSeeker; buffer the stream if the
	// caller's reader cannot seek.
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, readErr := io.ReadAll(r)
		if readErr != nil {
			return info, errors.Wrap(readErr, "reading JPEG stream")
		}
		rs = bytes.NewReader(data)
	}

	scanner, err := jseg.NewScanner(rs)
	if err != nil {
		return info, errors.Wrap(err, "not a JPEG stream")
	}

	sofSeen := false
	for {
		marker, buf, err := scanner.Scan()
		if err != nil {
			return info, errors.Wrap(err, "JPEG marker scan failed")
		}
		if marker == jseg.SOS {
			break
		}

		if isSOF(marker) {
			// Frame header payload: precision(1), height(2), width(2).
			if len(buf) < 5 {
				return info, errors.New("truncated SOF segment")
			}
			info.SOF = marker
			info.Height = int(buf[1])<<8 | int(buf[2])
			info.Width = int(buf[3])<<8 | int(buf[4])
			info.Progressive = isProgressive(marker)
			sofSeen = true
		}

		if marker == jseg.APP0+1 && bytes.HasPrefix(buf, exifPrefix) {
			if o, ok := exifOrientation(buf[len(exifPrefix):]); ok {
				info.Orientation = o
			}
		}
	}

	if !sofSeen {
		return info, errors.New("no frame header before scan data")
	}
	return info, nil
}

// ScanBytes is Scan over an in-memory buffer.
func ScanBytes(data []byte) (Info, error) {
	return Scan(bytes.NewReader(data))
}

// isSOF reports whether the marker is a start-of-frame marker. SOF4, SOF8 and
// SOF12 do not exist; those values are DHT, JPG and DAC.
func isSOF(m jseg.Marker) bool {
	if m < jseg.SOF0 || m > jseg.SOF0+15 {
		return false
	}
	switch m {
	case jseg.DHT, jseg.JPG, jseg.DAC:
		return false
	}
	return true
}

// isProgressive reports whether the SOF marker denotes a progressive
// encoding class (huffman or arithmetic, plain or differential).
func isProgressive(m jseg.Marker) bool {
	switch m {
	case jseg.SOF0 + 2, jseg.SOF0 + 6, jseg.SOF0 + 10, jseg.SOF0 + 14:
		return true
	}
	return false
}

// exifOrientation parses the TIFF block of an APP1 Exif segment and returns
// the orientation tag from IFD0, if present.
func exifOrientation(tiffBlock []byte) (int, bool) {
	valid, order, ifdpos := tiff.GetHeader(tiffBlock)
	if !valid {
		return 0, false
	}

	node, err := tiff.GetIFDTree(tiffBlock, order, ifdpos, tiff.TIFFSpace)
	if err != nil {
		return 0, false
	}

	for _, f := range node.Fields {
		if f.Tag == orientationTag && f.Count > 0 {
			return int(f.Short(0, order)), true
		}
	}
	return 0, false
}
