package timing

import (
	"cmp"

	"golang.org/x/exp/slices"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start, End float64
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

// AssignLanes places intervals into lanes so that no two intervals in the same lane overlap. Intervals are visited in
// order of their start, each going into the lowest lane that is free at that point. For intervals this first-fit
// order uses as many lanes as the largest number of intervals that overlap at one point in time, which is the
// minimum.
//
// lanes[i] is the lane of intervals[i].
func AssignLanes(intervals []Interval) (lanes []int, numLanes int) {
	lanes = make([]int, len(intervals))
	order := make([]int, len(intervals))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(intervals[a].Start, intervals[b].Start)
	})

	// laneEnds[l] is the end of the last interval placed in lane l.
	var laneEnds []float64
	for _, idx := range order {
		iv := intervals[idx]
		lane := -1
		for l, end := range laneEnds {
			if end <= iv.Start {
				lane = l
				break
			}
		}
		if lane == -1 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, iv.End)
		} else {
			laneEnds[lane] = iv.End
		}
		lanes[idx] = lane
	}
	return lanes, len(laneEnds)
}

// MaxOverlap returns the largest number of intervals that overlap at any point in time.
func MaxOverlap(intervals []Interval) int {
	type edge struct {
		t     float64
		delta int
	}
	edges := make([]edge, 0, 2*len(intervals))
	for _, iv := range intervals {
		if iv.End <= iv.Start {
			continue
		}
		edges = append(edges, edge{iv.Start, 1}, edge{iv.End, -1})
	}
	// Ends sort before starts at the same time, since intervals are half-open.
	slices.SortFunc(edges, func(a, b edge) int {
		if c := cmp.Compare(a.t, b.t); c != 0 {
			return c
		}
		return cmp.Compare(a.delta, b.delta)
	})
	cur, best := 0, 0
	for _, e := range edges {
		cur += e.delta
		best = max(best, cur)
	}
	return best
}
