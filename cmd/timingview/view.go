package main

import (
	"fmt"
	"os"
	"time"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/color"
	"honnef.co/go/timingview/config"
	"honnef.co/go/timingview/logging"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks/fileactivity"
	"honnef.co/go/timingview/tracks/frames"
	"honnef.co/go/timingview/tracks/gameplay"
	"honnef.co/go/timingview/tracks/loading"
	"honnef.co/go/timingview/tracks/memory"
	"honnef.co/go/timingview/tracks/rendergraph"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// maxSettleFrames bounds the frames ticked while waiting for layout and auto-zoom animations to finish.
const maxSettleFrames = 240

// families holds the shared state of every track family.
type families struct {
	frames       *frames.SharedState
	loading      *loading.SharedState
	fileActivity *fileactivity.SharedState
	renderGraph  *rendergraph.SharedState
	memory       *memory.SharedState
	gameplay     *gameplay.SharedState
}

func newFamilies(cfg config.TracksConfig) (*families, error) {
	mode, ok := loading.ParseNameMode(cfg.LoadingNaming)
	if !ok {
		return nil, fmt.Errorf("unknown loading naming %q", cfg.LoadingNaming)
	}
	f := &families{
		frames:       frames.NewSharedState(),
		loading:      loading.NewSharedState(),
		fileActivity: fileactivity.NewSharedState(),
		renderGraph:  rendergraph.NewSharedState(),
		memory:       memory.NewSharedState(),
		gameplay:     gameplay.NewSharedState(),
	}
	f.loading.SetNameMode(mode)
	f.fileActivity.SetMergeLanes(cfg.MergeIOLanes)
	f.fileActivity.SetShowOnlyErrors(cfg.ShowOnlyIOErrors)
	return f, nil
}

func (f *families) extenders() []timing.Extender {
	return []timing.Extender{f.frames, f.loading, f.fileActivity, f.renderGraph, f.memory, f.gameplay}
}

// settings translates the configuration into view settings.
func settings(cfg *config.Config) (timing.Settings, error) {
	bg, err := color.ParseHex(cfg.Render.Background)
	if err != nil {
		return timing.Settings{}, fmt.Errorf("render.background: %w", err)
	}
	s := timing.DefaultSettings()
	s.FilterRebuildBudget = cfg.Tracks.FilterRebuildBudget
	s.ScrollDamping = cfg.Viewport.ScrollDamping
	s.UseDownsampling = cfg.Tracks.UseDownsampling
	s.GraphHeight = float32(cfg.Tracks.GraphHeight)
	s.Background = bg
	return s, nil
}

// newView returns a view configured by cfg with every track family registered.
func newView(cfg *config.Config, logger zerolog.Logger) (*timing.View, *families, error) {
	s, err := settings(cfg)
	if err != nil {
		return nil, nil, err
	}
	fams, err := newFamilies(cfg.Tracks)
	if err != nil {
		return nil, nil, err
	}
	sc := timing.NewSessionContext(logger, nil)
	sc.Settings = s
	v := timing.NewView(float32(cfg.Viewport.Width), float32(cfg.Viewport.Height), sc)
	v.Viewport.SetScaleLimits(cfg.Viewport.MinScaleX, cfg.Viewport.MaxScaleX)
	if cfg.Tracks.CompactMode {
		v.Layout.ForceCompactMode()
	}
	for _, e := range fams.extenders() {
		v.AddExtender(e)
	}
	return v, fams, nil
}

// interval is the time range shown by a command. A zero range shows the whole session.
type interval struct {
	start, end float64
}

func (iv *interval) addFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&iv.start, "start", 0, "Start of the shown time range, in seconds")
	cmd.Flags().Float64Var(&iv.end, "end", 0, "End of the shown time range, in seconds")
}

func (iv interval) resolve(duration float64) (start, end float64, err error) {
	if iv.start == 0 && iv.end == 0 {
		return 0, max(duration, 1e-3), nil
	}
	if iv.end <= iv.start {
		return 0, 0, fmt.Errorf("invalid time range [%g, %g]", iv.start, iv.end)
	}
	return iv.start, iv.end, nil
}

func loadSession(path string) (*analysis.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := analysis.LoadSession(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// openView loads the session at path into a new view showing iv and ticks until the view has settled.
func (a *app) openView(path string, iv interval) (*timing.View, *families, error) {
	t := time.Now()
	session, err := loadSession(path)
	if err != nil {
		return nil, nil, err
	}
	start, end, err := iv.resolve(session.Duration())
	if err != nil {
		return nil, nil, err
	}

	logger := logging.WithSession(a.logger, session.ID.String())
	v, fams, err := newView(a.cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	v.BeginSession(session)
	v.Viewport.ZoomOnTimeInterval(start, end-start)
	n := a.settle(v)
	logger.Info().
		Str("path", path).
		Int("tracks", len(v.Tracks())).
		Int("frames", n).
		Dur("elapsed", time.Since(t)).
		Msg("opened session")
	return v, fams, nil
}

// settle ticks v until nothing animates anymore and returns the number of frames it took.
func (a *app) settle(v *timing.View) int {
	w, h := float32(a.cfg.Viewport.Width), float32(a.cfg.Viewport.Height)
	n := 0
	for n < maxSettleFrames {
		v.Tick(w, h)
		n++
		if !v.Animating() {
			return n
		}
	}
	a.logger.Warn().Int("frames", n).Msg("view still animating")
	return n
}
