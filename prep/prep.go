// Package prep implements the image conditioner: a stateless transform that
// turns an arbitrary source image into a baseline JPEG at a fixed frame size
// under a byte budget, optionally stamped with a callsign watermark. The
// pipeline is pure; identical inputs always produce identical bytes, and
// no disk I/O happens here.
package prep

import (
	"image"

	"github.com/pkg/errors"

	"github.com/dstar-tools/imageprep/encoder"
	"github.com/dstar-tools/imageprep/images"
	"github.com/dstar-tools/imageprep/jpeginfo"
	"github.com/dstar-tools/imageprep/watermark"
)

const (
	// DefaultWidth is the frame width expected by D-STAR image terminals.
	DefaultWidth = 640
	// DefaultHeight is the frame height expected by D-STAR image terminals.
	DefaultHeight = 480
)

// Options configures a conversion. Immutable for the duration of the call.
type Options struct {
	// Width is the target frame width in pixels.
	Width int
	// Height is the target frame height in pixels.
	Height int
	// Mode selects how the source aspect ratio maps onto the frame.
	Mode images.FitMode
	// Sharpen is the unsharp mask amount applied after resizing; 0 disables.
	Sharpen float32
	// Budget is the size ceiling and quality ladder for encoding.
	Budget encoder.Budget
}

// DefaultOptions returns the stock pipeline configuration: 640x480, cover
// crop, no sharpening, 200 KB budget.
func DefaultOptions() Options {
	return Options{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Mode:   images.FitCover,
		Budget: encoder.DefaultBudget(),
	}
}

// Artifact is the result of one conversion. Created once per call; ownership
// transfers to the caller.
type Artifact struct {
	// Data is the encoded baseline JPEG.
	Data []byte
	// Quality is the JPEG quality level that produced Data.
	Quality int
	// Fit is false when no ladder quality met the budget and Data holds the
	// lowest-quality best-effort result.
	Fit bool
	// Width and Height are the output frame dimensions.
	Width  int
	Height int
	// SourceWidth and SourceHeight are the decoded input dimensions, after
	// orientation normalization.
	SourceWidth  int
	SourceHeight int
	// SourceFormat is the detected input format, when known.
	SourceFormat images.ImageFormat
}

// Size returns the encoded byte count.
func (a *Artifact) Size() int {
	return len(a.Data)
}

// Condition runs the conditioning pipeline on an already-decoded image:
// resize to the exact frame, composite the watermark, sharpen if configured,
// and encode as baseline JPEG walking the quality ladder.
//
// Arguments:
// - src: The decoded source image. Never mutated.
// - wm: Watermark text; an empty spec disables the stamp.
// - opts: Frame size, fit mode and encoding budget.
//
// Returns:
// - *Artifact: The encoded output.
// - error: *EncodeError on encoder failure or an invalid budget.
func Condition(src image.Image, wm watermark.Spec, opts Options) (*Artifact, error) {
	if src == nil {
		return nil, &DecodeError{Err: errors.New("nil source image")}
	}

	srcBounds := src.Bounds()

	frame, err := images.ResizeToFit(src, opts.Width, opts.Height, opts.Mode)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}

	frame = watermark.Apply(frame, wm)
	frame = images.Unsharp(frame, opts.Sharpen)

	result, err := encoder.EncodeUnderBudget(frame, opts.Budget)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}

	return &Artifact{
		Data:         result.Data,
		Quality:      result.Quality,
		Fit:          result.Fit,
		Width:        opts.Width,
		Height:       opts.Height,
		SourceWidth:  srcBounds.Dx(),
		SourceHeight: srcBounds.Dy(),
	}, nil
}

// ConditionBytes decodes a raw image buffer, normalizes its EXIF orientation,
// and runs the conditioning pipeline on it. This is the entry point used by
// the CLI, batch processor and HTTP handler.
//
// Arguments:
// - data: Raw image bytes in any supported format.
// - wm: Watermark text; an empty spec disables the stamp.
// - opts: Frame size, fit mode and encoding budget.
//
// Returns:
// - *Artifact: The encoded output.
// - error: *DecodeError for unreadable input, *EncodeError for encoder failure.
func ConditionBytes(data []byte, wm watermark.Spec, opts Options) (*Artifact, error) {
	img, format, err := images.Decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	// Phone cameras store rotation in EXIF rather than the pixels. A failed
	// scan just means no orientation metadata; the decode already succeeded.
	if format == images.FormatJPEG {
		if info, scanErr := jpeginfo.ScanBytes(data); scanErr == nil && info.Orientation > 0 {
			img = images.ApplyOrientation(img, images.Orientation(info.Orientation))
		}
	}

	artifact, err := Condition(img, wm, opts)
	if err != nil {
		return nil, err
	}
	artifact.SourceFormat = format
	return artifact, nil
}
