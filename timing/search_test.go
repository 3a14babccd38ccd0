package timing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type searchEvent struct {
	Start, End float64
	Depth      int
	Name       string
}

var overlapping = []searchEvent{
	{0, 10, 0, "first"},
	{2, 5, 0, "second"},
	{3, 4, 0, "third"},
	{20, 30, 0, "far"},
}

func newSearch(events []searchEvent, params SearchParameters) (*EventSearch[string], *[]string, *[]float64) {
	var matched []string
	var found []float64
	s := &EventSearch[string]{
		Params: params,
		Procedure: func(ctx *SearchContext[string]) {
			for _, ev := range events {
				if !ctx.ShouldContinue() {
					return
				}
				if ev.End < ctx.StartTime() || ev.Start > ctx.EndTime() {
					continue
				}
				ctx.Check(ev.Start, ev.End, ev.Depth, ev.Name)
			}
		},
		Matched: func(_, _ float64, _ int, name string) {
			matched = append(matched, name)
		},
		Found: func(start, end float64, _ int) {
			found = append(found, start, end)
		},
	}
	return s, &matched, &found
}

func TestSearchExhaustiveKeepsLastMatch(t *testing.T) {
	s, matched, found := newSearch(overlapping, SearchParameters{StartTime: 3.5, EndTime: 3.5})
	m, ok := s.Run()
	if !ok {
		t.Fatal("search found nothing")
	}
	if m.Payload != "third" {
		t.Errorf("got match %q, want the last one in iteration order, %q", m.Payload, "third")
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, *matched); diff != "" {
		t.Errorf("matched callbacks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3, 4}, *found); diff != "" {
		t.Errorf("found callback mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchStopAtFirstMatch(t *testing.T) {
	s, matched, found := newSearch(overlapping, SearchParameters{StartTime: 3.5, EndTime: 3.5, Flags: SearchStopAtFirstMatch})
	m, ok := s.Run()
	if !ok || m.Payload != "first" {
		t.Errorf("got %v, %t, want first match", m.Payload, ok)
	}
	if diff := cmp.Diff([]string{"first"}, *matched); diff != "" {
		t.Errorf("matched callbacks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 10}, *found); diff != "" {
		t.Errorf("found callback mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchLargestEvent(t *testing.T) {
	events := []searchEvent{
		{0, 2, 0, "short"},
		{1, 9, 0, "long"},
		{2, 10, 0, "equally long"},
		{3, 4, 0, "shorter"},
	}
	s, _, _ := newSearch(events, SearchParameters{StartTime: 3.5, EndTime: 3.5, Flags: SearchLargestEvent})
	m, ok := s.Run()
	if !ok || m.Payload != "long" {
		t.Errorf("got %q, %t, want %q; ties must keep the earlier match", m.Payload, ok, "long")
	}
}

func TestSearchEmptyRange(t *testing.T) {
	s, matched, found := newSearch(overlapping, SearchParameters{StartTime: 100, EndTime: 200})
	if _, ok := s.Run(); ok {
		t.Errorf("search outside all events reported a match")
	}
	if len(*matched) != 0 || len(*found) != 0 {
		t.Errorf("callbacks invoked without a match: matched=%v found=%v", *matched, *found)
	}
	if s.Find().IsSome() {
		t.Errorf("Find() = Some for a window without events")
	}
}

func TestSearchFilters(t *testing.T) {
	events := []searchEvent{
		{0, 10, 0, "parent"},
		{1, 2, 1, "child a"},
		{3, 4, 1, "child b"},
	}
	s, _, _ := newSearch(events, SearchParameters{
		StartTime:   0,
		EndTime:     10,
		EventFilter: func(_, _ float64, depth int) bool { return depth == 1 },
	})
	s.PayloadFilter = func(_, _ float64, _ int, name string) bool { return name != "child b" }
	m, ok := s.Run()
	if !ok || m.Payload != "child a" {
		t.Errorf("got %q, %t, want %q", m.Payload, ok, "child a")
	}
}
