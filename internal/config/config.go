// Package config resolves imgslim settings from the scan root's dotfile
// and IMGSLIM_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// FileName is the per-tree settings file, looked up in the scan root.
const FileName = ".imgslim.json"

// Built-in defaults, applied when neither the file nor the environment
// sets a value.
const (
	DefaultMaxWidth             = 1200
	DefaultSizeThresholdKB      = 500
	DefaultDimensionThresholdPX = 1200
	DefaultQuality              = 95
)

// Config holds the tunable settings for a run. Precedence is
// flags > environment > file > defaults; flag merging happens in the app
// layer, this package resolves the other three.
type Config struct {
	ScanPaths            []string `json:"scan_paths" envconfig:"SCAN_PATHS"`
	SizeThresholdKB      int      `json:"size_threshold_kb" envconfig:"SIZE_THRESHOLD_KB"`
	DimensionThresholdPX int      `json:"dimension_threshold_px" envconfig:"DIMENSION_THRESHOLD_PX"`
	MaxWidth             int      `json:"max_width" envconfig:"MAX_WIDTH"`
	Quality              int      `json:"quality" envconfig:"QUALITY"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SizeThresholdKB:      DefaultSizeThresholdKB,
		DimensionThresholdPX: DefaultDimensionThresholdPX,
		MaxWidth:             DefaultMaxWidth,
		Quality:              DefaultQuality,
	}
}

// Load resolves the configuration for the given scan root: defaults, then
// the root's .imgslim.json if present, then IMGSLIM_* environment
// variables. A missing file is not an error. On a malformed file the
// defaults (plus environment) are returned together with the parse error
// so the caller can warn and continue.
func Load(root string) (Config, error) {
	cfg := Default()

	var fileErr error
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
			cfg = Default()
			fileErr = fmt.Errorf("failed to parse %s: %w", path, jsonErr)
		}
	case !os.IsNotExist(err):
		fileErr = fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := envconfig.Process("imgslim", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	return cfg, fileErr
}

// Limits is the candidate-selection value object handed to the scanner
// filter. A candidate is kept when it exceeds any one limit.
type Limits struct {
	SizeBytes   int64
	DimensionPX int
}

// Limits converts the configured thresholds to filter units.
func (c Config) Limits() Limits {
	return Limits{
		SizeBytes:   int64(c.SizeThresholdKB) * 1024,
		DimensionPX: c.DimensionThresholdPX,
	}
}
