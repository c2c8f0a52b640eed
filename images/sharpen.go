package images

import (
	"image"

	"github.com/disintegration/gift"
)

// Unsharp applies a mild unsharp mask to recover edge definition lost to
// Lanczos downscaling. Amount is the mask strength; 0.5 is a reasonable
// default for photographic content headed for heavy JPEG compression,
// anything above ~1.5 starts to halo.
//
// Arguments:
// - img: The resized frame.
// - amount: Unsharp mask strength. Values <= 0 return the input unchanged.
//
// Returns:
// - *image.RGBA: The sharpened frame.
func Unsharp(img *image.RGBA, amount float32) *image.RGBA {
	if amount <= 0 {
		return img
	}

	g := gift.New(gift.UnsharpMask(0.8, amount, 0.02))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
