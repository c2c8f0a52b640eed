package watermark

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstar-tools/imageprep/images"
)

func getFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 140, A: 255})
		}
	}
	return img
}

func TestSpecEmpty(t *testing.T) {
	assert.True(t, Spec{}.Empty(), "zero spec is empty")
	assert.True(t, Spec{Identity: "   "}.Empty(), "whitespace identity is empty")
	assert.False(t, Spec{Identity: "K0PRA"}.Empty())
	assert.False(t, Spec{Caption: "Pikes Peak"}.Empty())
}

func TestSpecLines(t *testing.T) {
	tests := []struct {
		name     string
		spec     Spec
		expected []string
	}{
		{
			name:     "Callsign only",
			spec:     Spec{Identity: "K0PRA"},
			expected: []string{"K0PRA"},
		},
		{
			name:     "Callsign and location",
			spec:     Spec{Identity: "K0PRA|Parker, Colorado"},
			expected: []string{"K0PRA", "Parker, Colorado"},
		},
		{
			name:     "Identity plus caption",
			spec:     Spec{Identity: "K0PRA|Parker, Colorado", Caption: "Field Day 2025"},
			expected: []string{"K0PRA", "Parker, Colorado", "Field Day 2025"},
		},
		{
			name:     "Caption only",
			spec:     Spec{Caption: "Field Day 2025"},
			expected: []string{"Field Day 2025"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.lines())
		})
	}
}

func TestApplyEmptySpecIsIdentity(t *testing.T) {
	frame := getFrame()
	out := Apply(frame, Spec{})
	assert.Same(t, frame, out, "empty spec should return the frame untouched")
}

func TestApplyChangesPixels(t *testing.T) {
	frame := getFrame()
	before := images.Checksum(frame)

	out := Apply(frame, Spec{Identity: "K0PRA|Parker, Colorado"})
	require.NotNil(t, out)

	assert.Equal(t, before, images.Checksum(frame), "source frame must not be mutated")
	assert.NotEqual(t, before, images.Checksum(out), "watermarked frame must differ from source")
	assert.Equal(t, frame.Rect, out.Rect, "watermarking must not change dimensions")
}

func TestApplyDeterministic(t *testing.T) {
	spec := Spec{Identity: "K0PRA", Caption: "Field Day 2025"}

	first := Apply(getFrame(), spec)
	second := Apply(getFrame(), spec)
	assert.Equal(t, images.Checksum(first), images.Checksum(second),
		"same spec on same frame must produce identical pixels")
}

func TestApplyBottomLeftPlacement(t *testing.T) {
	out := Apply(getFrame(), Spec{Identity: "K0PRA"})

	// Text is confined to the bottom-left region: the top half and the right
	// half of the frame keep the original fill.
	orig := color.RGBA{R: 40, G: 90, B: 140, A: 255}
	assert.Equal(t, orig, out.RGBAAt(320, 100), "top half should be untouched")
	assert.Equal(t, orig, out.RGBAAt(600, 470), "bottom-right should be untouched")

	// And some pixel in the stamp area changed to white or black.
	changed := false
	for y := 480 - 40; y < 480; y++ {
		for x := 0; x < 120; x++ {
			if out.RGBAAt(x, y) != orig {
				changed = true
			}
		}
	}
	assert.True(t, changed, "stamp area should contain rendered text")
}

func TestApplyTinyFrame(t *testing.T) {
	// A frame shorter than the text block must not panic; the stamp clamps
	// to the top edge.
	tiny := image.NewRGBA(image.Rect(0, 0, 64, 10))
	out := Apply(tiny, Spec{Identity: "K0PRA|Parker|Extra"})
	assert.Equal(t, tiny.Rect, out.Rect)
}
