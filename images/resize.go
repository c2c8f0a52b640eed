package images

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// FitMode selects how a source image is mapped onto the fixed target frame.
type FitMode string

// FitMode constants
const (
	// FitCover scales preserving aspect ratio so the image fills the frame,
	// then crops the overflow around the center.
	FitCover FitMode = "cover"
	// FitContain scales preserving aspect ratio so the image fits inside the
	// frame, letterboxing the remainder with black.
	FitContain FitMode = "contain"
	// FitExact stretches the image to the frame, ignoring aspect ratio.
	FitExact FitMode = "exact"
)

// ParseFitMode validates a fit mode string.
//
// Arguments:
// - s: One of "cover", "contain" or "exact".
//
// Returns:
// - FitMode: The parsed mode.
// - error: An error if the string is not a known mode.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case FitCover, FitContain, FitExact:
		return FitMode(s), nil
	default:
		return "", errors.Errorf("unknown resize mode %q (want cover, contain or exact)", s)
	}
}

// ResizeToFit resizes an image to exactly width x height using the given fit
// mode. Lanczos3 resampling is used for all scaling. The source image is never
// mutated; the result is always a freshly allocated RGBA buffer, so running
// the transform twice on its own output yields identical pixels.
//
// Arguments:
// - img: The source image.
// - width: Target frame width in pixels.
// - height: Target frame height in pixels.
// - mode: How to map the source aspect ratio onto the frame.
//
// Returns:
// - *image.RGBA: The resized frame, exactly width x height.
// - error: An error for invalid dimensions or an unknown mode.
func ResizeToFit(img image.Image, width, height int, mode FitMode) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid target dimensions: %dx%d", width, height)
	}
	if _, err := ParseFitMode(string(mode)); err != nil {
		return nil, err
	}

	// Already the target size: skip resampling, but still hand back a fresh
	// copy so the caller owns its buffer.
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst, nil
	}

	switch mode {
	case FitExact:
		scaled := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
		return ToRGBA(scaled), nil

	case FitContain:
		newW, newH := containSize(img.Bounds().Dx(), img.Bounds().Dy(), width, height)
		scaled := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
		canvas := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		offset := image.Pt((width-newW)/2, (height-newH)/2)
		draw.Draw(canvas, image.Rect(offset.X, offset.Y, offset.X+newW, offset.Y+newH), scaled, image.Point{}, draw.Src)
		return canvas, nil

	case FitCover:
		newW, newH := coverSize(img.Bounds().Dx(), img.Bounds().Dy(), width, height)
		scaled := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
		left := (newW - width) / 2
		top := (newH - height) / 2
		frame := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(frame, frame.Bounds(), scaled, image.Pt(left, top), draw.Src)
		return frame, nil

	default:
		return nil, errors.Errorf("unknown resize mode %q", mode)
	}
}

// containSize computes the largest dimensions that preserve the source aspect
// ratio while fitting inside the target frame.
func containSize(srcW, srcH, tgtW, tgtH int) (int, int) {
	srcRatio := float64(srcW) / float64(srcH)
	tgtRatio := float64(tgtW) / float64(tgtH)

	if srcRatio > tgtRatio {
		return tgtW, clampDim(int(math.Round(float64(tgtW) / srcRatio)), tgtH)
	}
	return clampDim(int(math.Round(float64(tgtH) * srcRatio)), tgtW), tgtH
}

// coverSize computes the smallest dimensions that preserve the source aspect
// ratio while covering the entire target frame.
func coverSize(srcW, srcH, tgtW, tgtH int) (int, int) {
	srcRatio := float64(srcW) / float64(srcH)
	tgtRatio := float64(tgtW) / float64(tgtH)

	if srcRatio > tgtRatio {
		w := int(math.Round(float64(tgtH) * srcRatio))
		if w < tgtW {
			w = tgtW
		}
		return w, tgtH
	}
	h := int(math.Round(float64(tgtW) / srcRatio))
	if h < tgtH {
		h = tgtH
	}
	return tgtW, h
}

// clampDim keeps rounding from producing a dimension larger than the frame
// or smaller than a single pixel.
func clampDim(v, max int) int {
	if v > max {
		return max
	}
	if v < 1 {
		return 1
	}
	return v
}

// ToRGBA converts any image.Image into an *image.RGBA copy anchored at the
// origin. Rows are converted in parallel across CPU cores.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	Parallel(bounds.Dy(), func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			for x := 0; x < bounds.Dx(); x++ {
				dst.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	})
	return dst
}
