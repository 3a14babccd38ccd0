// Package metrics exposes prometheus instrumentation for track updates.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label constants.

	/// Track family: `frames`, `loading`, `file_activity`, `render_graph`, `memory`, `gameplay`.
	TrackKindLabel = "track_kind"

	/// Which draw state was rebuilt: `primary` or `filtered`.
	DrawStateLabel = "draw_state"

	/// Why a filtered rebuild ran: `filter_changed`, `fast`, `settled`.
	RebuildReasonLabel = "reason"
)

const (
	namespace = "timingview"

	PrimaryDrawState  = "primary"
	FilteredDrawState = "filtered"
)

var (
	DrawStateRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "track",
		Name:      "draw_state_rebuilds",
		Help:      "Number of draw state rebuilds.",
	}, []string{
		TrackKindLabel,
		DrawStateLabel,
	})

	DrawStateRebuildDurationUsec = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "track",
		Name:      "draw_state_rebuild_duration_usec",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		Help:      "Time spent rebuilding a draw state, in **microseconds**.",
	}, []string{
		TrackKindLabel,
		DrawStateLabel,
	})

	DrawStateEvents = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "track",
		Name:      "draw_state_events",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		Help:      "Number of events added to a draw state per rebuild.",
	}, []string{
		TrackKindLabel,
	})

	FilteredRebuildsDeferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "track",
		Name:      "filtered_rebuilds_deferred",
		Help:      "Number of frames in which a filtered rebuild was postponed because the viewport was moving.",
	}, []string{
		TrackKindLabel,
	})

	FilteredRebuildReasons = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "track",
		Name:      "filtered_rebuild_reasons",
		Help:      "Filtered draw state rebuilds, by the reason the rebuild ran.",
	}, []string{
		TrackKindLabel,
		RebuildReasonLabel,
	})

	TracksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "tracks_created",
		Help:      "Number of tracks created by shared states.",
	}, []string{
		TrackKindLabel,
	})

	SessionLoadDurationUsec = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "load_duration_usec",
		Buckets:   prometheus.ExponentialBuckets(10, 10, 8),
		Help:      "Time spent decoding a session file, in **microseconds**.",
	})
)
