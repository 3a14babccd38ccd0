// Package tracks holds the plumbing shared by the track families in its subpackages.
package tracks

import (
	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/metrics"
	"honnef.co/go/timingview/timing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Logger returns the logger a family's shared state uses for the lifetime of one session.
func Logger(v *timing.View, kind timing.TrackKind) zerolog.Logger {
	l := v.Session.Logger.With().Str("component", string(kind))
	if s := v.Analysis(); s != nil {
		l = l.Stringer("session", s.ID)
	}
	return l.Logger()
}

// AddTrack adds a freshly created track to the view and accounts for it.
func AddTrack(v *timing.View, logger zerolog.Logger, t timing.Track) {
	v.AddTrack(t)
	metrics.TracksCreated.With(prometheus.Labels{metrics.TrackKindLabel: string(t.Kind())}).Inc()
	logger.Debug().Uint64("track", t.ID()).Str("name", t.Name()).Int("order", t.Order()).Msg("created track")
}

// RemoveTracks removes ts from the view. Nil tracks are skipped.
func RemoveTracks[P interface {
	*T
	timing.Track
}, T any](v *timing.View, ts ...P) {
	for _, t := range ts {
		if t != nil {
			v.RemoveTrack(t)
		}
	}
}

// TimelineProcedure returns a search procedure that checks the events of tl within the search window.
func TimelineProcedure[E any](tl analysis.EventTimeline[E]) func(ctx *timing.SearchContext[*E]) {
	return func(ctx *timing.SearchContext[*E]) {
		tl.EnumerateEvents(ctx.StartTime(), ctx.EndTime(), func(start, end float64, depth int, payload *E) bool {
			ctx.Check(start, end, depth, payload)
			return ctx.ShouldContinue()
		})
	}
}

// SetVisible shows or hides tracks and reports whether anything changed.
func SetVisible[P interface {
	*T
	timing.Track
}, T any](visible bool, ts ...P) bool {
	changed := false
	for _, t := range ts {
		if t == nil || t.IsVisible() == visible {
			continue
		}
		t.SetVisible(visible)
		changed = true
	}
	return changed
}
