package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// Checksum generates a deterministic checksum for an RGBA buffer, used to
// verify that repeated runs of the pipeline produce identical pixels.
//
// Arguments:
// - img: The image to checksum.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for a nil/zero image.
func Checksum(img *image.RGBA) string {
	if img == nil || len(img.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	hash.Write(img.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
