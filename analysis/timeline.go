package analysis

import (
	"fmt"
	"math"

	"honnef.co/go/timingview/mem"
)

// TimelineEvent is one event stored in a Timeline. End is +Inf for events that haven't ended yet.
type TimelineEvent[E any] struct {
	Start   float64
	End     float64
	Payload E
}

// EventTimeline is the read-only view of a Timeline handed to tracks.
type EventTimeline[E any] interface {
	// EnumerateEvents calls fn for every event that intersects [start, end], boundaries included, in order of
	// start time. Enumeration stops when fn returns false.
	EnumerateEvents(start, end float64, fn func(start, end float64, depth int, payload *E) bool)
	// EnumerateEventsDownsampled is like EnumerateEvents, but skips events shorter than secondsPerPixel that
	// start within a pixel of the previous event reported at the same depth.
	EnumerateEventsDownsampled(start, end, secondsPerPixel float64, fn func(start, end float64, depth int, payload *E) bool)
	NumEvents() int
	NumDepths() int
	Serial() uint64
}

// Timeline stores depth-nested events. Events at the same depth must not overlap and must be appended in order of
// start time, which lets enumeration seek to a time in O(log n) per depth. Payload pointers stay valid for the
// timeline's lifetime.
type Timeline[E any] struct {
	depths    []*mem.Arena[TimelineEvent[E]]
	numEvents int
	serial    uint64
}

var _ EventTimeline[struct{}] = (*Timeline[struct{}])(nil)

func NewTimeline[E any]() *Timeline[E] {
	return &Timeline[E]{}
}

func (tl *Timeline[E]) depth(d int) *mem.Arena[TimelineEvent[E]] {
	if d < 0 {
		panic(fmt.Sprintf("negative depth %d", d))
	}
	for len(tl.depths) <= d {
		tl.depths = append(tl.depths, new(mem.Arena[TimelineEvent[E]]))
	}
	return tl.depths[d]
}

// Append adds a finished event and returns a stable pointer to its payload.
func (tl *Timeline[E]) Append(start, end float64, depth int, payload E) *E {
	if math.IsNaN(start) || math.IsNaN(end) || end < start {
		panic(fmt.Sprintf("invalid event bounds [%v, %v]", start, end))
	}
	a := tl.depth(depth)
	if last := a.Last(); last != nil {
		if start < last.Start {
			panic(fmt.Sprintf("event at depth %d starts at %v, before previous event at %v", depth, start, last.Start))
		}
		if math.IsInf(last.End, 1) {
			panic(fmt.Sprintf("event appended at depth %d while previous event is still open", depth))
		}
	}
	ev := a.Grow()
	*ev = TimelineEvent[E]{Start: start, End: end, Payload: payload}
	tl.numEvents++
	tl.serial++
	return &ev.Payload
}

// AppendPacked appends an event at the lowest depth whose last event has ended by start, for flat event streams
// that may overlap. It returns the chosen depth.
func (tl *Timeline[E]) AppendPacked(start, end float64, payload E) int {
	d := 0
	for ; d < len(tl.depths); d++ {
		last := tl.depths[d].Last()
		if last == nil || (last.End <= start && last.Start <= start) {
			break
		}
	}
	tl.Append(start, end, d, payload)
	return d
}

// Begin adds an event that hasn't ended yet. It must be closed with End before another event is appended at the
// same depth.
func (tl *Timeline[E]) Begin(start float64, depth int, payload E) *E {
	p := tl.Append(start, start, depth, payload)
	tl.depths[depth].Last().End = math.Inf(1)
	return p
}

// End closes the open event at depth. It reports false if there is no open event.
func (tl *Timeline[E]) End(depth int, end float64) bool {
	if depth < 0 || depth >= len(tl.depths) {
		return false
	}
	last := tl.depths[depth].Last()
	if last == nil || !math.IsInf(last.End, 1) || end < last.Start {
		return false
	}
	last.End = end
	tl.serial++
	return true
}

func (tl *Timeline[E]) NumEvents() int { return tl.numEvents }
func (tl *Timeline[E]) NumDepths() int { return len(tl.depths) }

// Serial changes whenever events are added or modified.
func (tl *Timeline[E]) Serial() uint64 { return tl.serial }

// Bounds returns the earliest start and latest end of all events.
func (tl *Timeline[E]) Bounds() (start, end float64, ok bool) {
	start, end = math.Inf(1), math.Inf(-1)
	for _, a := range tl.depths {
		if a.Len() == 0 {
			continue
		}
		ok = true
		start = min(start, a.Ptr(0).Start)
		end = max(end, a.Last().End)
	}
	return start, end, ok
}

func (tl *Timeline[E]) EnumerateEvents(start, end float64, fn func(start, end float64, depth int, payload *E) bool) {
	tl.enumerate(start, end, fn)
}

func (tl *Timeline[E]) EnumerateEventsDownsampled(start, end, secondsPerPixel float64, fn func(start, end float64, depth int, payload *E) bool) {
	if secondsPerPixel <= 0 {
		tl.enumerate(start, end, fn)
		return
	}
	lastEnd := make([]float64, len(tl.depths))
	for i := range lastEnd {
		lastEnd[i] = math.Inf(-1)
	}
	tl.enumerate(start, end, func(s, e float64, depth int, payload *E) bool {
		if e-s < secondsPerPixel && s < lastEnd[depth]+secondsPerPixel {
			return true
		}
		lastEnd[depth] = e
		return fn(s, e, depth, payload)
	})
}

func (tl *Timeline[E]) enumerate(start, end float64, fn func(start, end float64, depth int, payload *E) bool) {
	if end < start || len(tl.depths) == 0 {
		return
	}

	// Ends are sorted within a depth because events at one depth don't overlap, so we can seek to the first
	// event that ends at or after start. From there, merge all depths by start time.
	cursors := make([]int, len(tl.depths))
	for d, a := range tl.depths {
		cursors[d] = a.Search(func(ev *TimelineEvent[E]) bool { return ev.End >= start })
	}
	for {
		best := -1
		var bestEv *TimelineEvent[E]
		for d, a := range tl.depths {
			i := cursors[d]
			if i >= a.Len() {
				continue
			}
			ev := a.Ptr(i)
			if ev.Start > end {
				continue
			}
			if best == -1 || ev.Start < bestEv.Start {
				best, bestEv = d, ev
			}
		}
		if best == -1 {
			return
		}
		cursors[best]++
		if !fn(bestEv.Start, bestEv.End, best, &bestEv.Payload) {
			return
		}
	}
}
