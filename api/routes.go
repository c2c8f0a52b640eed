// Package api exposes the image conditioner over HTTP: upload an image,
// get back a D-STAR-ready baseline JPEG.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dstar-tools/imageprep/prep"
	"github.com/dstar-tools/imageprep/watermark"
)

// Config holds the HTTP service configuration.
type Config struct {
	// Port the server listens on.
	Port string
	// MaxFileSize is the upload size ceiling in bytes.
	MaxFileSize int64
	// TempDir holds converted files while they are being served.
	TempDir string
	// Prep is the default pipeline configuration; per-request form fields
	// can override mode and watermark.
	Prep prep.Options
	// Watermark is the default watermark when the request carries none.
	Watermark watermark.Spec
}

// SetupRoutes registers the conversion endpoints on a gin engine.
func SetupRoutes(r *gin.Engine, config *Config) {
	apiGroup := r.Group("/api/image")
	{
		apiGroup.POST("/convert", func(c *gin.Context) { HandleConvert(c, config) })
		apiGroup.POST("/inspect", func(c *gin.Context) { HandleInspect(c, config) })
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "imageprep",
		})
	})
}
