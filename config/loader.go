package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// BindFlags lets command line flags override file and environment values. Flag names use dashes where keys use
// underscores, e.g. --viewport-width binds viewport.width.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(strings.Replace(f.Name, "-", ".", 1), "-", "_")
		if !l.v.IsSet(key) && !isKnownKey(key) {
			return
		}
		if bindErr := l.v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = bindErr
		}
	})
	return err
}

// Load loads configuration with precedence defaults < config file < env vars < flags.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v
	v.SetConfigName("timingview")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TIMINGVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
}

func defaults(cfg *Config) map[string]any {
	return map[string]any{
		"logging.level":                cfg.Logging.Level,
		"logging.format":               cfg.Logging.Format,
		"logging.enable_caller":        cfg.Logging.EnableCaller,
		"viewport.width":               cfg.Viewport.Width,
		"viewport.height":              cfg.Viewport.Height,
		"viewport.min_scale_x":         cfg.Viewport.MinScaleX,
		"viewport.max_scale_x":         cfg.Viewport.MaxScaleX,
		"viewport.scroll_damping":      cfg.Viewport.ScrollDamping,
		"tracks.compact_mode":          cfg.Tracks.CompactMode,
		"tracks.filter_rebuild_budget": cfg.Tracks.FilterRebuildBudget,
		"tracks.merge_io_lanes":        cfg.Tracks.MergeIOLanes,
		"tracks.show_only_io_errors":   cfg.Tracks.ShowOnlyIOErrors,
		"tracks.loading_naming":        cfg.Tracks.LoadingNaming,
		"tracks.graph_height":          cfg.Tracks.GraphHeight,
		"tracks.use_downsampling":      cfg.Tracks.UseDownsampling,
		"render.label_cache_size":      cfg.Render.LabelCacheSize,
		"render.background":            cfg.Render.Background,
	}
}

func isKnownKey(key string) bool {
	_, ok := defaults(DefaultConfig())[key]
	return ok
}
