package batch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstar-tools/imageprep/jpeginfo"
	"github.com/dstar-tools/imageprep/prep"
	"github.com/dstar-tools/imageprep/watermark"
)

// writeTestPNG drops a small valid PNG into the directory.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// writeCorruptJPEG drops a file with a JPEG extension but garbage contents.
func writeCorruptJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\xFF\xD8\xFFgarbage beyond repair"), 0o644))
	return path
}

func newTestProcessor(outDir string, workers int) *Processor {
	return New(Options{
		OutDir:  outDir,
		Workers: workers,
		Prep:    prep.DefaultOptions(),
	})
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		inPath   string
		prefix   string
		suffix   string
		expected string
	}{
		{name: "Plain", inPath: "/in/photo.png", expected: "photo.jpg"},
		{name: "Prefix", inPath: "photo.png", prefix: "dstar", expected: "dstar_photo.jpg"},
		{name: "Suffix", inPath: "photo.tiff", suffix: "640", expected: "photo_640.jpg"},
		{name: "Both", inPath: "a/b/photo.webp", prefix: "dstar", suffix: "640", expected: "dstar_photo_640.jpg"},
		{name: "Whitespace trimmed", inPath: "photo.jpg", prefix: "  ", suffix: " x ", expected: "photo_x.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputName(tt.inPath, tt.prefix, tt.suffix))
		})
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "b.png")
	writeTestPNG(t, dir, "a.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)) // directory, despite the name

	paths, err := ListImages(dir)
	require.NoError(t, err)

	require.Len(t, paths, 2, "only supported image files are listed")
	assert.Equal(t, filepath.Join(dir, "a.png"), paths[0], "listing is name-sorted")
	assert.Equal(t, filepath.Join(dir, "b.png"), paths[1])
}

func TestListImagesMissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestProcessorFile(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "OUT")
	src := writeTestPNG(t, inDir, "photo.png")

	p := newTestProcessor(outDir, 1)
	result, err := p.File(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "photo.jpg"), result.OutPath)
	assert.Equal(t, 640, result.Artifact.Width)
	assert.Equal(t, 480, result.Artifact.Height)

	written, err := os.ReadFile(result.OutPath)
	require.NoError(t, err)
	assert.Equal(t, result.Artifact.Data, written, "file on disk matches the artifact")

	info, err := jpeginfo.ScanBytes(written)
	require.NoError(t, err)
	assert.True(t, info.Baseline())
}

func TestProcessorFileNoPartialOutput(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "OUT")
	src := writeCorruptJPEG(t, inDir, "broken.jpg")

	p := newTestProcessor(outDir, 1)
	_, err := p.File(src)
	require.Error(t, err, "corrupt input must fail")

	_, statErr := os.Stat(filepath.Join(outDir, "broken.jpg"))
	assert.True(t, os.IsNotExist(statErr), "no partial output file may be left behind")
}

func TestProcessorFileMissingInput(t *testing.T) {
	p := newTestProcessor(filepath.Join(t.TempDir(), "OUT"), 1)
	_, err := p.File(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)

	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr), "missing input should surface as IOError, got %T", err)
	assert.Contains(t, ioErr.Path, "nope.png")
}

func TestProcessorDirContinuesPastFailures(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "OUT")
	writeTestPNG(t, inDir, "one.png")
	writeTestPNG(t, inDir, "two.png")
	writeCorruptJPEG(t, inDir, "broken.jpg")

	p := newTestProcessor(outDir, 1)
	summary, err := p.Dir(inDir)
	require.NoError(t, err)

	assert.Len(t, summary.Results, 2, "valid files convert despite the corrupt one")
	assert.Len(t, summary.Failures, 1)
	assert.True(t, summary.Failed())
	assert.Contains(t, summary.Failures[0].Path, "broken.jpg")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "output dir holds exactly the successful conversions")
}

func TestProcessorDirParallelWorkers(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "OUT")
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
		writeTestPNG(t, inDir, name)
	}

	p := newTestProcessor(outDir, 4)
	summary, err := p.Dir(inDir)
	require.NoError(t, err)

	assert.Len(t, summary.Results, 5)
	assert.False(t, summary.Failed())
}

func TestProcessorDirEmpty(t *testing.T) {
	p := newTestProcessor(t.TempDir(), 1)
	_, err := p.Dir(t.TempDir())
	assert.Error(t, err, "a folder without supported images is an error")
}

func TestProcessorWatermarkApplied(t *testing.T) {
	inDir := t.TempDir()
	src := writeTestPNG(t, inDir, "photo.png")

	plain := New(Options{OutDir: filepath.Join(t.TempDir(), "a"), Prep: prep.DefaultOptions()})
	stamped := New(Options{
		OutDir:    filepath.Join(t.TempDir(), "b"),
		Prep:      prep.DefaultOptions(),
		Watermark: watermark.Spec{Identity: "K0PRA"},
	})

	plainResult, err := plain.File(src)
	require.NoError(t, err)
	stampedResult, err := stamped.File(src)
	require.NoError(t, err)

	assert.NotEqual(t, plainResult.Artifact.Data, stampedResult.Artifact.Data,
		"watermarked batch output must differ")
}
