package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Viewport.Width = 0
	cfg.Tracks.LoadingNaming = "nope"
	cfg.Render.Background = "grey"
	err := cfg.Validate()
	if got := len(multierr.Errors(err)); got != 4 {
		t.Errorf("got %d errors, want 4: %v", got, err)
	}
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timingview.yaml")
	data := "viewport:\n  width: 800\n  height: 600\ntracks:\n  filter_rebuild_budget: 10ms\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIMINGVIEW_VIEWPORT_HEIGHT", "400")

	l := NewLoader()
	l.SetConfigFile(path)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("tracks-compact-mode", false, "")
	if err := flags.Parse([]string{"--tracks-compact-mode"}); err != nil {
		t.Fatal(err)
	}
	if err := l.BindFlags(flags); err != nil {
		t.Fatal(err)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Viewport.Width != 800 {
		t.Errorf("width = %d, want 800 from file", cfg.Viewport.Width)
	}
	if cfg.Viewport.Height != 400 {
		t.Errorf("height = %d, want 400 from env", cfg.Viewport.Height)
	}
	if cfg.Tracks.FilterRebuildBudget != 10*time.Millisecond {
		t.Errorf("filter_rebuild_budget = %v, want 10ms", cfg.Tracks.FilterRebuildBudget)
	}
	if !cfg.Tracks.CompactMode {
		t.Errorf("compact_mode not set from flag")
	}
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	l := NewLoader()
	l.SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := l.Load()
	if err == nil || !strings.Contains(err.Error(), "config file") {
		t.Errorf("Load() = %v, want config file error", err)
	}
}
