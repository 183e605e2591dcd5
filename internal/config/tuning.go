// Package config holds the injected tuning parameters for the terrain
// analysis pipeline. The engine does not load or watch configuration at
// runtime; callers construct or load a TuningConfig once and pass the
// derived parameter structs in.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ridgeline-data/terrain.report/internal/terrain"
)

// TuningConfig represents the tunable analysis parameters. All fields are
// pointers so partial JSON configs are safe: omitted fields keep their
// defaults via the Get* accessors.
type TuningConfig struct {
	// Grid params
	GridSpacingMeters *float64 `json:"grid_spacing_meters,omitempty"`

	// Detection params
	SaddleDepthThreshold          *float64 `json:"saddle_depth_threshold,omitempty"`
	SaddleWidthMin                *float64 `json:"saddle_width_min,omitempty"`
	SaddleWidthMax                *float64 `json:"saddle_width_max,omitempty"`
	RidgeProminenceThreshold      *float64 `json:"ridge_prominence_threshold,omitempty"`
	RidgeAccessibilityThreshold   *float64 `json:"ridge_accessibility_threshold,omitempty"`
	EscapeRoutePriority           *float64 `json:"escape_route_priority,omitempty"`
	DrainageMaxGradientPercent    *float64 `json:"drainage_max_gradient_percent,omitempty"`
	DrainageConcealmentMultiplier *float64 `json:"drainage_concealment_multiplier,omitempty"`
	DrainageWaterAccessBonus      *float64 `json:"drainage_water_access_bonus,omitempty"`
	SlopeBreakVarianceThreshold   *float64 `json:"slope_break_variance_threshold,omitempty"`
	BenchFlatnessThreshold        *float64 `json:"bench_flatness_threshold,omitempty"`
	BenchPreferredElevationMin    *float64 `json:"bench_preferred_elevation_min,omitempty"`
	BenchPreferredElevationMax    *float64 `json:"bench_preferred_elevation_max,omitempty"`

	// Clustering params
	ClusterEpsilonMeters *float64 `json:"cluster_epsilon_meters,omitempty"`
	ClusterMinMembers    *int     `json:"cluster_min_members,omitempty"`

	// Cache params
	CacheTTL *string `json:"cache_ttl,omitempty"` // duration string like "1h"
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, so
// every accessor reports its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
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

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.GridSpacingMeters != nil && *c.GridSpacingMeters <= 0 {
		return fmt.Errorf("grid_spacing_meters must be positive, got %f", *c.GridSpacingMeters)
	}
	if c.SaddleDepthThreshold != nil && *c.SaddleDepthThreshold < 0 {
		return fmt.Errorf("saddle_depth_threshold must be non-negative, got %f", *c.SaddleDepthThreshold)
	}
	if c.SaddleWidthMin != nil && c.SaddleWidthMax != nil && *c.SaddleWidthMin > *c.SaddleWidthMax {
		return fmt.Errorf("saddle width range inverted: %f > %f", *c.SaddleWidthMin, *c.SaddleWidthMax)
	}
	if c.RidgeAccessibilityThreshold != nil {
		if v := *c.RidgeAccessibilityThreshold; v < 0 || v > 1 {
			return fmt.Errorf("ridge_accessibility_threshold must be between 0 and 1, got %f", v)
		}
	}
	if c.EscapeRoutePriority != nil {
		if v := *c.EscapeRoutePriority; v < 0 || v > 1 {
			return fmt.Errorf("escape_route_priority must be between 0 and 1, got %f", v)
		}
	}
	if c.ClusterEpsilonMeters != nil && *c.ClusterEpsilonMeters <= 0 {
		return fmt.Errorf("cluster_epsilon_meters must be positive, got %f", *c.ClusterEpsilonMeters)
	}
	if c.ClusterMinMembers != nil && *c.ClusterMinMembers < 2 {
		return fmt.Errorf("cluster_min_members must be at least 2, got %d", *c.ClusterMinMembers)
	}
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}
	return nil
}

// GetGridSpacingMeters returns the grid spacing or the 50 m default.
func (c *TuningConfig) GetGridSpacingMeters() float64 {
	if c.GridSpacingMeters == nil {
		return 50.0
	}
	return *c.GridSpacingMeters
}

// GetCacheTTL parses and returns the cache TTL as a time.Duration.
func (c *TuningConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return time.Hour // default
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return time.Hour // default on parse error
	}
	return d
}

// DetectorParams builds terrain detection parameters from the config,
// filling unset fields with defaults.
func (c *TuningConfig) DetectorParams() terrain.DetectorParams {
	p := terrain.DefaultDetectorParams()
	if c.SaddleDepthThreshold != nil {
		p.SaddleDepthThreshold = *c.SaddleDepthThreshold
	}
	if c.SaddleWidthMin != nil {
		p.SaddleWidthMin = *c.SaddleWidthMin
	}
	if c.SaddleWidthMax != nil {
		p.SaddleWidthMax = *c.SaddleWidthMax
	}
	if c.RidgeProminenceThreshold != nil {
		p.RidgeProminenceThreshold = *c.RidgeProminenceThreshold
	}
	if c.RidgeAccessibilityThreshold != nil {
		p.RidgeAccessibilityThreshold = *c.RidgeAccessibilityThreshold
	}
	if c.EscapeRoutePriority != nil {
		p.EscapeRoutePriority = *c.EscapeRoutePriority
	}
	if c.DrainageMaxGradientPercent != nil {
		p.DrainageMaxGradientPercent = *c.DrainageMaxGradientPercent
	}
	if c.DrainageConcealmentMultiplier != nil {
		p.DrainageConcealmentMultiplier = *c.DrainageConcealmentMultiplier
	}
	if c.DrainageWaterAccessBonus != nil {
		p.DrainageWaterAccessBonus = *c.DrainageWaterAccessBonus
	}
	if c.SlopeBreakVarianceThreshold != nil {
		p.SlopeBreakVarianceThreshold = *c.SlopeBreakVarianceThreshold
	}
	if c.BenchFlatnessThreshold != nil {
		p.BenchFlatnessThreshold = *c.BenchFlatnessThreshold
	}
	if c.BenchPreferredElevationMin != nil {
		p.BenchPreferredElevationMin = *c.BenchPreferredElevationMin
	}
	if c.BenchPreferredElevationMax != nil {
		p.BenchPreferredElevationMax = *c.BenchPreferredElevationMax
	}
	return p
}

// ClusterParams builds DBSCAN parameters from the config.
func (c *TuningConfig) ClusterParams() terrain.DBSCANParams {
	p := terrain.DefaultDBSCANParams()
	if c.ClusterEpsilonMeters != nil {
		p.Eps = *c.ClusterEpsilonMeters
	}
	if c.ClusterMinMembers != nil {
		p.MinPts = *c.ClusterMinMembers
	}
	return p
}
