// Package config loads the detection tuning configuration. Fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply the canonical defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomesfin/puncta/internal/particle"
)

// DefaultConfigPath is the path to the canonical tuning defaults file,
// the single source of truth for default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning configuration. The schema matches the
// /api/detect params overrides so the same JSON shape works for startup
// configuration and per-request tuning.
type TuningConfig struct {
	// Detection params
	WindowSize *int     `json:"window_size,omitempty"`
	ThreshCoef *float64 `json:"thresh_coef,omitempty"`
	Percentile *float64 `json:"percentile,omitempty"`

	// Service params
	ImageDir       *string `json:"image_dir,omitempty"`        // directory API image paths must live under
	MaxUploadBytes *int64  `json:"max_upload_bytes,omitempty"` // request body cap for /api/detect

	// Output params
	MicronsPerPixel *float64 `json:"microns_per_pixel,omitempty"` // physical scale for exported coordinates
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under 1MB. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/particle/*/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set fields are in range.
func (c *TuningConfig) Validate() error {
	if c.WindowSize != nil {
		if *c.WindowSize <= 0 || *c.WindowSize%2 == 0 {
			return fmt.Errorf("window_size must be odd and positive, got %d", *c.WindowSize)
		}
	}
	if c.ThreshCoef != nil && *c.ThreshCoef <= 0 {
		return fmt.Errorf("thresh_coef must be positive, got %f", *c.ThreshCoef)
	}
	if c.Percentile != nil {
		if *c.Percentile < 0 || *c.Percentile > 1 {
			return fmt.Errorf("percentile must be between 0 and 1, got %f", *c.Percentile)
		}
	}
	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}
	if c.MicronsPerPixel != nil && *c.MicronsPerPixel <= 0 {
		return fmt.Errorf("microns_per_pixel must be positive, got %f", *c.MicronsPerPixel)
	}
	return nil
}

// GetWindowSize returns the window_size value or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 3
	}
	return *c.WindowSize
}

// GetThreshCoef returns the thresh_coef value or the default.
func (c *TuningConfig) GetThreshCoef() float64 {
	if c.ThreshCoef == nil {
		return 1.3
	}
	return *c.ThreshCoef
}

// GetPercentile returns the percentile value or the default.
func (c *TuningConfig) GetPercentile() float64 {
	if c.Percentile == nil {
		return 0.99
	}
	return *c.Percentile
}

// GetImageDir returns the image_dir value or the default.
func (c *TuningConfig) GetImageDir() string {
	if c.ImageDir == nil || *c.ImageDir == "" {
		return "images"
	}
	return *c.ImageDir
}

// GetMaxUploadBytes returns the max_upload_bytes value or the default.
func (c *TuningConfig) GetMaxUploadBytes() int64 {
	if c.MaxUploadBytes == nil {
		return 32 * 1024 * 1024
	}
	return *c.MaxUploadBytes
}

// GetMicronsPerPixel returns the microns_per_pixel value, or 0 when no
// physical scale is configured.
func (c *TuningConfig) GetMicronsPerPixel() float64 {
	if c.MicronsPerPixel == nil {
		return 0
	}
	return *c.MicronsPerPixel
}

// Params assembles detection parameters from the configured values.
func (c *TuningConfig) Params() particle.Params {
	return particle.Params{
		WindowSize: c.GetWindowSize(),
		ThreshCoef: c.GetThreshCoef(),
		Percentile: c.GetPercentile(),
	}
}
