// Package watermark composites operator identification text onto a frame.
// Amateur radio convention is a callsign stamp on shared images; the stamp
// is drawn bottom-left with a one-pixel black shadow under white text so it
// stays readable on any background.
package watermark

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultMargin is the distance in pixels from the left and bottom edges.
	DefaultMargin = 14
	// lineGap is the vertical spacing between stacked lines.
	lineGap = 4
)

// Spec describes the watermark text. Pure configuration; the zero value
// renders nothing.
type Spec struct {
	// Identity is the operator line, e.g. "K0PRA|Parker, Colorado".
	// A '|' splits it into stacked lines.
	Identity string
	// Caption is an optional extra line (landmark, elevation, event name).
	Caption string
	// Margin overrides DefaultMargin when positive.
	Margin int
}

// Empty reports whether there is any text to render.
func (s Spec) Empty() bool {
	return strings.TrimSpace(s.Identity) == "" && strings.TrimSpace(s.Caption) == ""
}

// lines expands the spec into the ordered text lines to draw.
func (s Spec) lines() []string {
	var out []string
	if strings.TrimSpace(s.Identity) != "" {
		out = append(out, strings.Split(s.Identity, "|")...)
	}
	if strings.TrimSpace(s.Caption) != "" {
		out = append(out, s.Caption)
	}
	return out
}

// Apply draws the watermark onto a copy of the frame and returns it. The
// source buffer is never modified. An empty spec returns the source as-is.
//
// Arguments:
// - img: The frame to stamp.
// - spec: The watermark text and placement.
//
// Returns:
// - *image.RGBA: The stamped frame (or img itself when spec is empty).
func Apply(img *image.RGBA, spec Spec) *image.RGBA {
	lines := spec.lines()
	if len(lines) == 0 {
		return img
	}

	dst := image.NewRGBA(img.Rect)
	copy(dst.Pix, img.Pix)

	margin := spec.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	totalHeight := len(lines)*lineHeight + (len(lines)-1)*lineGap
	x := margin
	top := dst.Rect.Dy() - totalHeight - margin
	if top < 0 {
		top = 0
	}

	for _, line := range lines {
		baseline := top + ascent
		drawString(dst, face, line, x+1, baseline+1, color.Black)
		drawString(dst, face, line, x, baseline, color.White)
		top += lineHeight + lineGap
	}

	return dst
}

// drawString renders a single line of text at the given baseline position.
func drawString(dst *image.RGBA, face font.Face, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
