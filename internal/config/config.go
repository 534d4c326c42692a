// Package config handles grainmesh command configuration loading.
package config

import (
	"fmt"
	"os"

	"github.com/soypat/grainmesh/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds all pipeline settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Generate GenerateConfig `yaml:"generate"`
	Volume   VolumeConfig   `yaml:"volume"`
	Surface  SurfaceConfig  `yaml:"surface"`
	Report   ReportConfig   `yaml:"report"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

// GenerateConfig describes the synthetic microstructure.
type GenerateConfig struct {
	// Size is the edge length of the cubic domain centered at the origin.
	Size       float64 `yaml:"size"`
	Resolution float64 `yaml:"resolution"`
	Grains     int     `yaml:"grains"`
	Seed       int64   `yaml:"seed"`
}

// VolumeConfig holds tetrahedral decimation settings.
type VolumeConfig struct {
	// GoalFraction is the fraction of tetrahedra to keep.
	GoalFraction   float64 `yaml:"goal_fraction"`
	NearestSibling bool    `yaml:"nearest_sibling"`
}

// SurfaceConfig holds surface decimation settings.
type SurfaceConfig struct {
	KeepPercent float64 `yaml:"keep_percent"`
	// Repair runs winding repair before decimation.
	Repair bool `yaml:"repair"`
	// Scramble randomly reverses triangles before repair, for testing repair.
	Scramble bool `yaml:"scramble"`
}

// ReportConfig controls the quality report.
type ReportConfig struct {
	// Dir receives histogram plots. Empty disables plotting.
	Dir  string `yaml:"dir"`
	Bins int    `yaml:"bins"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Generate: GenerateConfig{
			Size:       8,
			Resolution: 0.5,
			Grains:     6,
			Seed:       1,
		},
		Volume: VolumeConfig{
			GoalFraction: 0.5,
		},
		Surface: SurfaceConfig{
			KeepPercent: 50,
			Repair:      true,
		},
		Report: ReportConfig{
			Bins: 20,
		},
	}
}

// Load returns the defaults overridden by the YAML file at path, if path
// is not empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks parameter ranges.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch {
	case c.Generate.Size <= 0:
		return fmt.Errorf("generate.size must be positive, got %g", c.Generate.Size)
	case c.Generate.Resolution <= 0 || c.Generate.Resolution > c.Generate.Size:
		return fmt.Errorf("generate.resolution must be in (0, size], got %g", c.Generate.Resolution)
	case c.Generate.Grains < 1:
		return fmt.Errorf("generate.grains must be at least 1, got %d", c.Generate.Grains)
	case c.Volume.GoalFraction < 0 || c.Volume.GoalFraction > 1:
		return fmt.Errorf("volume.goal_fraction must be in [0, 1], got %g", c.Volume.GoalFraction)
	case c.Surface.KeepPercent < 0 || c.Surface.KeepPercent > 100:
		return fmt.Errorf("surface.keep_percent must be in [0, 100], got %g", c.Surface.KeepPercent)
	case c.Report.Bins < 1:
		return fmt.Errorf("report.bins must be at least 1, got %d", c.Report.Bins)
	}
	return nil
}
