package main

import (
	"fmt"
	"text/tabwriter"

	"honnef.co/go/timingview/timing"

	"github.com/spf13/cobra"
)

func newTracksCmd(a *app) *cobra.Command {
	var (
		iv  interval
		all bool
	)
	cmd := &cobra.Command{
		Use:   "tracks SESSION",
		Short: "List the tracks of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := a.openView(args[0], iv)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tY\tHEIGHT\tCONTENT")
			for _, t := range v.Tracks() {
				if !t.IsVisible() && !all {
					continue
				}
				name := t.Name()
				if !t.IsVisible() {
					name += " (hidden)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%s\n", t.Kind(), name, t.PosY(), t.Height(), describeContent(t))
			}
			return tw.Flush()
		},
	}
	iv.addFlags(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden tracks")
	return cmd
}

// describeContent summarizes what a track currently draws.
func describeContent(t timing.Track) string {
	switch t := t.(type) {
	case interface{ DrawState() *timing.DrawState }:
		ds := t.DrawState()
		if ds == nil {
			return "-"
		}
		return fmt.Sprintf("%d lanes, %d events", ds.NumLanes(), ds.NumEvents)
	case interface{ Series() []*timing.GraphSeries }:
		n, visible := 0, 0
		for _, s := range t.Series() {
			if s.Visible {
				visible++
				n += len(s.Events)
			}
		}
		return fmt.Sprintf("%d/%d series, %d points", visible, len(t.Series()), n)
	default:
		return "-"
	}
}
