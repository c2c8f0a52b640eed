package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dstar-tools/imageprep/images"
	"github.com/dstar-tools/imageprep/jpeginfo"
	"github.com/dstar-tools/imageprep/prep"
)

// HandleConvert accepts a multipart image upload, runs the conditioning
// pipeline and serves the resulting baseline JPEG. Form fields "watermark",
// "caption" and "mode" override the configured defaults per request.
func HandleConvert(c *gin.Context, config *Config) {
	data, ok := readUpload(c, config)
	if !ok {
		return
	}

	opts := config.Prep
	if mode := c.PostForm("mode"); mode != "" {
		parsed, err := images.ParseFitMode(mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Mode = parsed
	}

	wm := config.Watermark
	if identity := c.PostForm("watermark"); identity != "" {
		wm.Identity = identity
	}
	if caption := c.PostForm("caption"); caption != "" {
		wm.Caption = caption
	}

	artifact, err := prep.ConditionBytes(data, wm, opts)
	if err != nil {
		switch err.(type) {
		case *prep.DecodeError:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable or unsupported image"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Conversion failed"})
		}
		return
	}

	if err := ensureTempDir(config.TempDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}

	outFile := filepath.Join(config.TempDir, "dstar_"+uuid.NewString()+".jpg")
	if err := os.WriteFile(outFile, artifact.Data, 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save converted file"})
		return
	}

	c.Header("X-Jpeg-Quality", fmt.Sprintf("%d", artifact.Quality))
	c.Header("X-Frame-Size", fmt.Sprintf("%dx%d", artifact.Width, artifact.Height))
	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(outFile))
	c.File(outFile)

	// Clean up after the response has been streamed.
	go func(path string) {
		time.Sleep(FileCleanupDelay)
		os.Remove(path)
	}(outFile)
}

// HandleInspect reports the structure of an uploaded JPEG: dimensions, SOF
// encoding class and EXIF orientation. Useful for checking whether a file is
// already radio-compatible.
func HandleInspect(c *gin.Context, config *Config) {
	data, ok := readUpload(c, config)
	if !ok {
		return
	}

	if images.DetectFormat(data) != images.FormatJPEG {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Inspection requires a JPEG file"})
		return
	}

	info, err := jpeginfo.ScanBytes(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corrupt JPEG stream"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"width":       info.Width,
		"height":      info.Height,
		"sof":         info.SOF.Name(),
		"baseline":    info.Baseline(),
		"progressive": info.Progressive,
		"orientation": info.Orientation,
	})
}

// readUpload pulls the "image" form file, validates its size and magic
// bytes, and returns its contents. Writes the error response itself and
// returns ok=false on failure.
func readUpload(c *gin.Context, config *Config) ([]byte, bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}
	defer file.Close()

	if err := validateImageFile(file, header, config.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, config.MaxFileSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return nil, false
	}
	return data, true
}

// validateImageFile checks the declared size and the leading magic bytes of
// an upload. The file is rewound before returning.
func validateImageFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", header.Size, maxSize)
	}

	head := make([]byte, sniffLen)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload")
	}

	if images.DetectFormat(head[:n]) == images.FormatUnknown {
		return fmt.Errorf("unsupported file type")
	}
	return nil
}

// ensureTempDir creates the temp directory if needed.
func ensureTempDir(dir string) error {
	return os.MkdirAll(dir, DefaultFilePermissions)
}
