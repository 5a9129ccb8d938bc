package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glint-data/flash.report/internal/vision"
)

// TuningConfig represents the root configuration for pipeline tuning.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime updates. All fields are
// optional; omitted fields keep their defaults, so partial configs are safe.
type TuningConfig struct {
	// Detection params
	BrightnessThreshold *float64 `json:"brightness_threshold,omitempty"`
	MotionThreshold     *float64 `json:"motion_threshold,omitempty"`

	// Capture params
	AssembleTimeout *string `json:"assemble_timeout,omitempty"` // duration string like "250ms"
	MaxPendingFrame *int    `json:"max_pending_frames,omitempty"`

	// Reporting params
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "60s"
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted from
// the JSON retain their default values.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
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

// Validate checks that configuration values are in range.
func (c *TuningConfig) Validate() error {
	if c.BrightnessThreshold != nil {
		if *c.BrightnessThreshold < 0 || *c.BrightnessThreshold > 1 {
			return fmt.Errorf("brightness_threshold must be between 0 and 1, got %f", *c.BrightnessThreshold)
		}
	}
	if c.MotionThreshold != nil {
		if *c.MotionThreshold < 0 || *c.MotionThreshold > 1 {
			return fmt.Errorf("motion_threshold must be between 0 and 1, got %f", *c.MotionThreshold)
		}
	}
	if c.AssembleTimeout != nil && *c.AssembleTimeout != "" {
		if _, err := time.ParseDuration(*c.AssembleTimeout); err != nil {
			return fmt.Errorf("invalid assemble_timeout '%s': %w", *c.AssembleTimeout, err)
		}
	}
	if c.MaxPendingFrame != nil {
		if *c.MaxPendingFrame < 1 {
			return fmt.Errorf("max_pending_frames must be positive, got %d", *c.MaxPendingFrame)
		}
	}
	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}
	return nil
}

// GetBrightnessThreshold returns the brightness_threshold value or the default.
func (c *TuningConfig) GetBrightnessThreshold() float64 {
	if c.BrightnessThreshold == nil {
		return vision.DefaultBrightnessThreshold
	}
	return *c.BrightnessThreshold
}

// GetMotionThreshold returns the motion_threshold value or the default.
func (c *TuningConfig) GetMotionThreshold() float64 {
	if c.MotionThreshold == nil {
		return vision.DefaultMotionThreshold
	}
	return *c.MotionThreshold
}

// GetAssembleTimeout parses and returns the AssembleTimeout as a time.Duration.
func (c *TuningConfig) GetAssembleTimeout() time.Duration {
	if c.AssembleTimeout == nil || *c.AssembleTimeout == "" {
		return 250 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.AssembleTimeout)
	if err != nil {
		return 250 * time.Millisecond // default on parse error
	}
	return d
}

// GetMaxPendingFrames returns the max_pending_frames value or the default.
func (c *TuningConfig) GetMaxPendingFrames() int {
	if c.MaxPendingFrame == nil {
		return 4 // default
	}
	return *c.MaxPendingFrame
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *TuningConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 60 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}

// ProcessorOptions converts the tuning config into FrameProcessor options.
func (c *TuningConfig) ProcessorOptions() []vision.Option {
	return []vision.Option{
		vision.WithBrightnessThreshold(c.GetBrightnessThreshold()),
		vision.WithMotionThreshold(c.GetMotionThreshold()),
	}
}

// Merge overlays non-nil fields of other onto c. Used by the runtime params
// endpoint to apply partial updates.
func (c *TuningConfig) Merge(other *TuningConfig) {
	if other == nil {
		return
	}
	if other.BrightnessThreshold != nil {
		c.BrightnessThreshold = other.BrightnessThreshold
	}
	if other.MotionThreshold != nil {
		c.MotionThreshold = other.MotionThreshold
	}
	if other.AssembleTimeout != nil {
		c.AssembleTimeout = other.AssembleTimeout
	}
	if other.MaxPendingFrame != nil {
		c.MaxPendingFrame = other.MaxPendingFrame
	}
	if other.StatsInterval != nil {
		c.StatsInterval = other.StatsInterval
	}
}
