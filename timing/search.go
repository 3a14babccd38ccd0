package timing

import (
	"honnef.co/go/timingview/container"
)

type SearchFlags uint8

const (
	// SearchStopAtFirstMatch ends the search at the first accepted event. Without it, the search is exhaustive and
	// the last accepted event in iteration order wins.
	SearchStopAtFirstMatch SearchFlags = 1 << iota
	// SearchLargestEvent only accepts an event if it is strictly longer than the current best match.
	SearchLargestEvent
)

// EventFilterFunc decides on an event by its bounds and depth alone.
type EventFilterFunc func(start, end float64, depth int) bool

// SearchParameters describes a search independently of the payload type, so that the view can hand it to any
// track.
type SearchParameters struct {
	StartTime   float64
	EndTime     float64
	Flags       SearchFlags
	EventFilter EventFilterFunc
}

// Match is an event accepted by a search.
type Match[P any] struct {
	StartTime float64
	EndTime   float64
	Depth     int
	Payload   P
}

// EventSearch finds events in arbitrary storage. Procedure iterates the caller's events, typically those in
// [Params.StartTime, Params.EndTime], and passes each candidate to SearchContext.Check.
type EventSearch[P any] struct {
	Params SearchParameters

	// PayloadFilter, if set, runs after Params.EventFilter.
	PayloadFilter func(start, end float64, depth int, payload P) bool
	Procedure     func(ctx *SearchContext[P])
	// Matched is called for every accepted event.
	Matched func(start, end float64, depth int, payload P)
	// Found is called once after the search, with the final match, and only if there is one.
	Found func(start, end float64, depth int)
}

// SearchContext carries the state of one running search.
type SearchContext[P any] struct {
	search *EventSearch[P]
	best   Match[P]
	found  bool
	done   bool
}

func (ctx *SearchContext[P]) StartTime() float64 { return ctx.search.Params.StartTime }
func (ctx *SearchContext[P]) EndTime() float64   { return ctx.search.Params.EndTime }

// ShouldContinue reports whether the procedure should keep passing candidates. Procedures may ignore it; Check is a
// no-op once the search is done.
func (ctx *SearchContext[P]) ShouldContinue() bool { return !ctx.done }

// Check considers one candidate event.
func (ctx *SearchContext[P]) Check(start, end float64, depth int, payload P) {
	if ctx.done {
		return
	}
	s := ctx.search
	if s.Params.EventFilter != nil && !s.Params.EventFilter(start, end, depth) {
		return
	}
	if s.PayloadFilter != nil && !s.PayloadFilter(start, end, depth, payload) {
		return
	}
	if s.Params.Flags&SearchLargestEvent != 0 && ctx.found && end-start <= ctx.best.EndTime-ctx.best.StartTime {
		return
	}

	if s.Matched != nil {
		s.Matched(start, end, depth, payload)
	}
	ctx.best = Match[P]{StartTime: start, EndTime: end, Depth: depth, Payload: payload}
	ctx.found = true
	if s.Params.Flags&SearchStopAtFirstMatch != 0 {
		ctx.done = true
	}
}

// Run executes the search and returns the final match.
func (s *EventSearch[P]) Run() (Match[P], bool) {
	ctx := &SearchContext[P]{search: s}
	if s.Procedure != nil {
		s.Procedure(ctx)
	}
	if !ctx.found {
		return Match[P]{}, false
	}
	if s.Found != nil {
		s.Found(ctx.best.StartTime, ctx.best.EndTime, ctx.best.Depth)
	}
	return ctx.best, true
}

// Find is Run returning an Option.
func (s *EventSearch[P]) Find() container.Option[Match[P]] {
	if m, ok := s.Run(); ok {
		return container.Some(m)
	}
	return container.None[Match[P]]()
}
