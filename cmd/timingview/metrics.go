package main

import (
	"fmt"
	"strings"

	"honnef.co/go/timingview/render/raster"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

const metricsPrefix = "timingview_"

func newMetricsCmd(a *app) *cobra.Command {
	var (
		iv     interval
		frames int
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "metrics SESSION",
		Short: "Print instrumentation collected while displaying a session",
		Long: "Open a session, draw it for a number of frames and print the collected metrics " +
			"in the Prometheus text format.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames < 1 {
				return fmt.Errorf("--frames must be at least 1, got %d", frames)
			}
			v, _, err := a.openView(args[0], iv)
			if err != nil {
				return err
			}
			w, h := a.cfg.Viewport.Width, a.cfg.Viewport.Height
			r := raster.New(w, h, a.cfg.Render.LabelCacheSize)
			for range frames {
				v.Tick(float32(w), float32(h))
				r.Resize(w, h)
				v.Draw(r)
			}

			mfs, err := prometheus.DefaultGatherer.Gather()
			if err != nil {
				return fmt.Errorf("gathering metrics: %w", err)
			}
			enc := expfmt.NewEncoder(cmd.OutOrStdout(), expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range mfs {
				if !all && !isOwnMetric(mf) {
					continue
				}
				if err := enc.Encode(mf); err != nil {
					return fmt.Errorf("encoding metrics: %w", err)
				}
			}
			return nil
		},
	}
	iv.addFlags(cmd)
	cmd.Flags().IntVar(&frames, "frames", 1, "Number of frames to draw")
	cmd.Flags().BoolVar(&all, "all", false, "Include Go runtime and process metrics")
	return cmd
}

func isOwnMetric(mf *dto.MetricFamily) bool {
	return strings.HasPrefix(mf.GetName(), metricsPrefix)
}
