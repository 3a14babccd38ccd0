// Package config holds the timing view's settings.
package config

import (
	"fmt"
	"time"

	"honnef.co/go/timingview/color"

	"go.uber.org/multierr"
)

// Config is the complete set of settings.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Tracks   TracksConfig   `mapstructure:"tracks"`
	Render   RenderConfig   `mapstructure:"render"`
}

type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	EnableCaller bool   `mapstructure:"enable_caller"`
}

type ViewportConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	// MinScaleX and MaxScaleX bound the zoom level, in pixels per second.
	MinScaleX float64 `mapstructure:"min_scale_x"`
	MaxScaleX float64 `mapstructure:"max_scale_x"`
	// ScrollDamping is the elastic factor applied when scrolling past the valid time range.
	ScrollDamping float64 `mapstructure:"scroll_damping"`
}

type TracksConfig struct {
	CompactMode bool `mapstructure:"compact_mode"`
	// FilterRebuildBudget is how long a filtered rebuild may take before rebuilds are deferred while the
	// viewport is moving.
	FilterRebuildBudget time.Duration `mapstructure:"filter_rebuild_budget"`
	MergeIOLanes        bool          `mapstructure:"merge_io_lanes"`
	ShowOnlyIOErrors    bool          `mapstructure:"show_only_io_errors"`
	LoadingNaming       string        `mapstructure:"loading_naming"`
	GraphHeight         float64       `mapstructure:"graph_height"`
	UseDownsampling     bool          `mapstructure:"use_downsampling"`
}

type RenderConfig struct {
	// LabelCacheSize is the number of measured label widths kept by the raster renderer.
	LabelCacheSize int    `mapstructure:"label_cache_size"`
	Background     string `mapstructure:"background"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Viewport: ViewportConfig{
			Width:         1280,
			Height:        720,
			MinScaleX:     1280.0 / (24 * 3600),
			MaxScaleX:     1e8,
			ScrollDamping: 0.5,
		},
		Tracks: TracksConfig{
			FilterRebuildBudget: 5 * time.Millisecond,
			MergeIOLanes:        true,
			LoadingNaming:       "default",
			GraphHeight:         200,
		},
		Render: RenderConfig{
			LabelCacheSize: 4096,
			Background:     "#202020ff",
		},
	}
}

// Validate checks the configuration and reports every problem it finds.
func (c *Config) Validate() error {
	var err error
	switch c.Logging.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewport: size must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.Viewport.MinScaleX <= 0 || c.Viewport.MaxScaleX < c.Viewport.MinScaleX {
		err = multierr.Append(err, fmt.Errorf("viewport: invalid scale range [%g, %g]", c.Viewport.MinScaleX, c.Viewport.MaxScaleX))
	}
	if c.Viewport.ScrollDamping <= 0 || c.Viewport.ScrollDamping > 1 {
		err = multierr.Append(err, fmt.Errorf("viewport.scroll_damping: must be in (0, 1], got %g", c.Viewport.ScrollDamping))
	}
	if c.Tracks.FilterRebuildBudget < 0 {
		err = multierr.Append(err, fmt.Errorf("tracks.filter_rebuild_budget: must not be negative"))
	}
	switch c.Tracks.LoadingNaming {
	case "default", "package_event", "export_event", "package_name", "export_class":
	default:
		err = multierr.Append(err, fmt.Errorf("tracks.loading_naming: unknown mode %q", c.Tracks.LoadingNaming))
	}
	if c.Tracks.GraphHeight <= 0 {
		err = multierr.Append(err, fmt.Errorf("tracks.graph_height: must be positive"))
	}
	if _, perr := color.ParseHex(c.Render.Background); perr != nil {
		err = multierr.Append(err, fmt.Errorf("render.background: %w", perr))
	}
	if c.Render.LabelCacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("render.label_cache_size: must be positive"))
	}
	return err
}
