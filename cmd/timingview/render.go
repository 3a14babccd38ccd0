package main

import (
	"fmt"
	"os"

	"honnef.co/go/timingview/mem"
	"honnef.co/go/timingview/render/gioui"
	"honnef.co/go/timingview/render/raster"

	"gioui.org/font/gofont"
	"gioui.org/text"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		iv      interval
		output  string
		backend string
		hoverX  float32
		hoverY  float32
	)
	cmd := &cobra.Command{
		Use:   "render SESSION",
		Short: "Render the tracks of a session",
		Long: "Render the tracks of a session. The raster backend writes a PNG image. " +
			"The gio backend records GPU operations and reports how many it recorded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := a.openView(args[0], iv)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hover-x") || cmd.Flags().Changed("hover-y") {
				v.HoverAt(hoverX, hoverY)
			}

			switch backend {
			case "raster":
				r := raster.New(a.cfg.Viewport.Width, a.cfg.Viewport.Height, a.cfg.Render.LabelCacheSize)
				v.Draw(r)
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := r.WritePNG(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				a.logger.Info().Str("output", output).Int("labels", r.CachedWidths()).Msg("wrote image")
			case "gio":
				var rops mem.ReusableOps
				r := gioui.New(text.NewShaper(text.NoSystemFonts(), text.WithCollection(gofont.Collection())))
				_, stats := gioui.Frame(v, r, &rops)
				fmt.Fprintf(cmd.OutOrStdout(), "rects=%d paints=%d texts=%d\n", stats.Rects, stats.Paints, stats.Texts)
			default:
				return fmt.Errorf("unknown backend %q", backend)
			}
			return nil
		},
	}
	iv.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "timing.png", "Image to write")
	cmd.Flags().StringVar(&backend, "backend", "raster", "Renderer to use, raster or gio")
	cmd.Flags().Float32Var(&hoverX, "hover-x", 0, "Highlight the event under this x coordinate")
	cmd.Flags().Float32Var(&hoverY, "hover-y", 0, "Highlight the event under this y coordinate")
	return cmd
}
