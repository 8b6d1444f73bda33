// Package bench runs motion estimation strategies over frame sequences and
// aggregates quality, cost and runtime per strategy.
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/cwbudde/motionbench/internal/imgproc"
	"github.com/cwbudde/motionbench/internal/me"
)

// MinBlockSize keeps the coarsest pyramid level at least one pixel per block.
const MinBlockSize = 4

// Config holds the benchmark parameters shared by every strategy in a run.
type Config struct {
	BlockSize          int            `json:"block_size"`
	SearchRange        int            `json:"search_range"`
	EarlyExitThreshold int            `json:"early_exit_threshold"`
	StepSchedule       []int          `json:"step_schedule"`
	Workers            int            `json:"workers"`
	InclusiveBounds    bool           `json:"inclusive_bounds"`
	PyramidKernel      string         `json:"pyramid_kernel"`
	TextureRanges      me.TieredRange `json:"texture_ranges"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		BlockSize:          16,
		SearchRange:        16,
		EarlyExitThreshold: me.DefaultEarlyExit,
		StepSchedule:       me.StepSchedule(me.DefaultStep),
		Workers:            1,
		PyramidKernel:      "gaussian",
		TextureRanges:      me.DefaultTieredRange(),
	}
}

// LoadConfig reads a JSON config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config. It returns a *ConfigError for the first
// invalid field.
func (c Config) Validate() error {
	if c.BlockSize < MinBlockSize {
		return &ConfigError{Field: "block_size", Reason: fmt.Sprintf("must be at least %d", MinBlockSize)}
	}
	if c.SearchRange < 0 {
		return &ConfigError{Field: "search_range", Reason: "cannot be negative"}
	}
	if c.EarlyExitThreshold < 0 {
		return &ConfigError{Field: "early_exit_threshold", Reason: "cannot be negative"}
	}
	if len(c.StepSchedule) == 0 {
		return &ConfigError{Field: "step_schedule", Reason: "cannot be empty"}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Reason: "must be positive"}
	}
	if !slices.Contains(imgproc.KernelNames(), c.PyramidKernel) {
		return &ConfigError{Field: "pyramid_kernel", Reason: fmt.Sprintf("must be one of %v", imgproc.KernelNames())}
	}
	t := c.TextureRanges
	if t.LowCut < 0 || t.HighCut < t.LowCut {
		return &ConfigError{Field: "texture_ranges", Reason: "cut points must satisfy 0 <= low_cut <= high_cut"}
	}
	if t.Low < 0 || t.Mid < 0 || t.High < 0 {
		return &ConfigError{Field: "texture_ranges", Reason: "ranges cannot be negative"}
	}
	return nil
}

// Params converts the config to per-block search parameters.
func (c Config) Params() me.Params {
	p := me.Params{
		BlockSize:   c.BlockSize,
		SearchRange: c.SearchRange,
		EarlyExit:   c.EarlyExitThreshold,
		Steps:       slices.Clone(c.StepSchedule),
		Bounds:      me.BoundsStrict,
	}
	if c.InclusiveBounds {
		p.Bounds = me.BoundsInclusive
	}
	return p
}

// ConfigError reports an invalid config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}
