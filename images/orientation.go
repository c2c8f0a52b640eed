package images

import "image"

// Orientation is an EXIF orientation value (1-8). Phone cameras record the
// sensor orientation here instead of rotating the pixels, so the pipeline
// applies the transform before resizing.
type Orientation int

// EXIF orientation values.
const (
	OrientationNormal     Orientation = 1
	OrientationFlipH      Orientation = 2
	OrientationRotate180  Orientation = 3
	OrientationFlipV      Orientation = 4
	OrientationTranspose  Orientation = 5
	OrientationRotate90   Orientation = 6
	OrientationTransverse Orientation = 7
	OrientationRotate270  Orientation = 8
)

// swapsDimensions reports whether the orientation rotates the frame by a
// quarter turn, swapping width and height.
func (o Orientation) swapsDimensions() bool {
	return o >= OrientationTranspose
}

// ApplyOrientation returns a copy of img with the EXIF orientation transform
// applied, so the result reads top-left first. Orientation values outside 2-8
// (including the normal orientation) return the source image unchanged.
//
// Arguments:
// - img: The decoded source image.
// - o: The EXIF orientation recorded for it.
//
// Returns:
// - image.Image: The normalized image. A new buffer unless o is a no-op.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	if o <= OrientationNormal || o > OrientationRotate270 {
		return img
	}

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	dstW, dstH := w, h
	if o.swapsDimensions() {
		dstW, dstH = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	Parallel(dstH, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			for x := 0; x < dstW; x++ {
				var sx, sy int
				switch o {
				case OrientationFlipH:
					sx, sy = w-1-x, y
				case OrientationRotate180:
					sx, sy = w-1-x, h-1-y
				case OrientationFlipV:
					sx, sy = x, h-1-y
				case OrientationTranspose:
					sx, sy = y, x
				case OrientationRotate90:
					sx, sy = y, h-1-x
				case OrientationTransverse:
					sx, sy = w-1-y, h-1-x
				case OrientationRotate270:
					sx, sy = w-1-y, x
				}
				dst.Set(x, y, img.At(bounds.Min.X+sx, bounds.Min.Y+sy))
			}
		}
	})

	return dst
}
