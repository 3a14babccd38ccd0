package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"honnef.co/go/timingview/timing"

	"github.com/spf13/cobra"
)

var errNoEvent = errors.New("no event at the given position")

func newInspectCmd(a *app) *cobra.Command {
	var (
		iv    interval
		x, y  float32
		moves []string
		menu  bool
	)
	cmd := &cobra.Command{
		Use:   "inspect SESSION",
		Short: "Describe the event at a position",
		Long: "Describe the event at a viewport position. The event is selected and the selection moved " +
			"in the directions given by --move, in order, before it is described.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := a.openView(args[0], iv)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if menu {
				m, ok := v.ContextMenu(y)
				if !ok {
					return fmt.Errorf("no track at y=%g", y)
				}
				writeMenu(out, m)
				return nil
			}

			if !v.HoverAt(x, y).IsSome() {
				return errNoEvent
			}
			v.SelectHovered()
			for _, dir := range moves {
				ok, err := move(v, dir)
				if err != nil {
					return err
				}
				if !ok {
					a.logger.Warn().Str("direction", dir).Msg("nothing to select")
				}
			}
			ev := v.Selected().MustGet()
			var tt timing.Tooltip
			ev.Track.InitTooltip(&tt, ev)
			writeTooltip(out, ev, &tt)
			return nil
		},
	}
	iv.addFlags(cmd)
	cmd.Flags().Float32Var(&x, "x", 0, "Viewport x coordinate")
	cmd.Flags().Float32Var(&y, "y", 0, "Viewport y coordinate")
	cmd.Flags().StringSliceVar(&moves, "move", nil, "Move the selection: left, right, up or down")
	cmd.Flags().BoolVar(&menu, "menu", false, "Print the context menu of the track at y instead")
	return cmd
}

func move(v *timing.View, dir string) (bool, error) {
	switch dir {
	case "left":
		return v.SelectLeft(), nil
	case "right":
		return v.SelectRight(), nil
	case "up":
		return v.SelectUp(), nil
	case "down":
		return v.SelectDown(), nil
	default:
		return false, fmt.Errorf("unknown direction %q", dir)
	}
}

func writeTooltip(w io.Writer, ev timing.TimingEvent, tt *timing.Tooltip) {
	fmt.Fprintf(w, "%s\n", tt.Title)
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "  Track:\t%s\n", ev.Track.Name())
	fmt.Fprintf(tw, "  Depth:\t%d\n", ev.Depth)
	for _, row := range tt.Rows {
		fmt.Fprintf(tw, "  %s:\t%s\n", row.Name, row.Value)
	}
	tw.Flush()
}

func writeMenu(w io.Writer, m *timing.Menu) {
	for _, sec := range m.Sections {
		if sec.Label != "" {
			fmt.Fprintf(w, "%s\n", sec.Label)
		}
		for _, item := range sec.Items {
			mark := " "
			if item.Checked() {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s] %s\n", mark, item.Label)
		}
	}
}
