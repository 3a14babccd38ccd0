package main

import (
	"fmt"

	"honnef.co/go/timingview/config"
	"honnef.co/go/timingview/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by all subcommands. It is populated before any subcommand runs.
type app struct {
	configFile string
	cfg        *config.Config
	logger     zerolog.Logger
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "timingview",
		Short:         "Render and inspect timing tracks of profiling sessions",
		Long:          "timingview lays out the frames, loading, file activity, render graph, memory and gameplay tracks of a session file and renders or queries them headlessly.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a configuration file")
	flags.String("logging-level", defaults.Logging.Level, "Minimum log level")
	flags.String("logging-format", defaults.Logging.Format, "Log format, console or json")
	flags.Int("viewport-width", defaults.Viewport.Width, "Viewport width in pixels")
	flags.Int("viewport-height", defaults.Viewport.Height, "Viewport height in pixels")
	flags.Bool("tracks-compact-mode", defaults.Tracks.CompactMode, "Use the compact track layout")
	flags.Bool("tracks-merge-io-lanes", defaults.Tracks.MergeIOLanes, "Pack file activity into as few lanes as possible")
	flags.Bool("tracks-show-only-io-errors", defaults.Tracks.ShowOnlyIOErrors, "Only show failed file activity")
	flags.String("tracks-loading-naming", defaults.Tracks.LoadingNaming, "How loading events are named")
	flags.Bool("tracks-use-downsampling", defaults.Tracks.UseDownsampling, "Skip events too small to be seen")
	flags.String("render-background", defaults.Render.Background, "Background color as #RRGGBB[AA]")

	cmd.AddCommand(
		newRenderCmd(a),
		newInspectCmd(a),
		newTracksCmd(a),
		newMetricsCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cmd.ErrOrStderr(),
		EnableCaller: cfg.Logging.EnableCaller,
	})
	a.logger = logging.Component("cli")
	return nil
}
