// Package config loads the application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Image     ImageConfig     `yaml:"image"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Batch     BatchConfig     `yaml:"batch"`
	Server    ServerConfig    `yaml:"server"`
}

// OutputConfig controls where converted files land and how they are named.
type OutputConfig struct {
	// Dir is the output directory, created on demand.
	Dir string `yaml:"dir"`
	// Prefix is prepended to output file stems.
	Prefix string `yaml:"prefix"`
	// Suffix is appended to output file stems.
	Suffix string `yaml:"suffix"`
}

// ImageConfig controls the conditioning pipeline.
type ImageConfig struct {
	// Size is the target frame, e.g. "640x480".
	Size string `yaml:"size"`
	// Mode is the fit mode: cover, contain or exact.
	Mode string `yaml:"mode"`
	// MaxKB is the output size ceiling in kilobytes.
	MaxKB int `yaml:"max_kb"`
	// Sharpen is the unsharp mask amount after resize; 0 disables.
	Sharpen float32 `yaml:"sharpen"`
}

// WatermarkConfig is the default watermark applied when the CLI flag is unset.
type WatermarkConfig struct {
	Identity string `yaml:"identity"`
	Caption  string `yaml:"caption"`
}

// BatchConfig controls directory processing.
type BatchConfig struct {
	// Workers is the number of concurrent conversions; 1 means sequential.
	Workers int `yaml:"workers"`
}

// ServerConfig configures the HTTP convert endpoint.
type ServerConfig struct {
	Port        string `yaml:"port"`
	MaxFileSize int64  `yaml:"max_file_size"`
	TempDir     string `yaml:"temp_dir"`
}

// Default returns the stock configuration matching the CLI defaults.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Dir: "OUT"},
		Image: ImageConfig{
			Size:  "640x480",
			Mode:  "cover",
			MaxKB: 200,
		},
		Batch: BatchConfig{Workers: 1},
		Server: ServerConfig{
			Port:        "8080",
			MaxFileSize: 10 * 1024 * 1024,
			TempDir:     "./temp",
		},
	}
}

// Load reads and parses a YAML configuration file, starting from defaults so
// omitted keys keep their stock values, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays IMAGEPREP_* environment variables onto the config.
func (c *Config) applyEnv() {
	c.Output.Dir = getEnv("IMAGEPREP_OUT_DIR", c.Output.Dir)
	c.Image.Size = getEnv("IMAGEPREP_SIZE", c.Image.Size)
	c.Image.Mode = getEnv("IMAGEPREP_MODE", c.Image.Mode)
	c.Image.MaxKB = getEnvInt("IMAGEPREP_MAX_KB", c.Image.MaxKB)
	c.Watermark.Identity = getEnv("IMAGEPREP_WATERMARK", c.Watermark.Identity)
	c.Batch.Workers = getEnvInt("IMAGEPREP_WORKERS", c.Batch.Workers)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", c.Server.MaxFileSize)
	c.Server.TempDir = getEnv("TEMP_DIR", c.Server.TempDir)
}

// ParseSize parses a "WxH" size string like "640x480".
//
// Arguments:
// - s: The size string; case-insensitive on the separator.
//
// Returns:
// - width, height: The parsed dimensions.
// - error: An error for malformed strings or non-positive dimensions.
func ParseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("invalid size %q, use like 640x480", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Errorf("invalid size %q, use like 640x480", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Errorf("invalid size %q, use like 640x480", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.Errorf("size %q must have positive dimensions", s)
	}
	return w, h, nil
}

// getEnv returns an environment variable or a fallback.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns an integer environment variable or a fallback.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvInt64 returns an int64 environment variable or a fallback.
func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
