package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type ev struct {
	Start, End float64
	Depth      int
	Name       string
}

func collect(tl EventTimeline[string], start, end float64) []ev {
	var out []ev
	tl.EnumerateEvents(start, end, func(s, e float64, depth int, name *string) bool {
		out = append(out, ev{s, e, depth, *name})
		return true
	})
	return out
}

func nestedTimeline() *Timeline[string] {
	tl := NewTimeline[string]()
	tl.Append(0, 10, 0, "a")
	tl.Append(1, 3, 1, "a1")
	tl.Append(4, 9, 1, "a2")
	tl.Append(5, 6, 2, "a2x")
	tl.Append(12, 20, 0, "b")
	tl.Append(13, 14, 1, "b1")
	return tl
}

func TestTimelineEnumerateOrder(t *testing.T) {
	got := collect(nestedTimeline(), 0, 100)
	want := []ev{
		{0, 10, 0, "a"},
		{1, 3, 1, "a1"},
		{4, 9, 1, "a2"},
		{5, 6, 2, "a2x"},
		{12, 20, 0, "b"},
		{13, 14, 1, "b1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enumeration mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineEnumerateWindow(t *testing.T) {
	got := collect(nestedTimeline(), 8.5, 12.5)
	want := []ev{
		{0, 10, 0, "a"},
		{4, 9, 1, "a2"},
		{12, 20, 0, "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
	if got := collect(nestedTimeline(), 30, 40); len(got) != 0 {
		t.Errorf("got %d events past the end, want 0", len(got))
	}
}

func TestTimelineStopEarly(t *testing.T) {
	n := 0
	nestedTimeline().EnumerateEvents(0, 100, func(float64, float64, int, *string) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Errorf("callback ran %d times, want 2", n)
	}
}

func TestTimelineOpenEvent(t *testing.T) {
	tl := NewTimeline[string]()
	tl.Begin(5, 0, "open")
	got := collect(tl, 100, 200)
	if len(got) != 1 || !math.IsInf(got[0].End, 1) {
		t.Fatalf("open event not reported at later times: %v", got)
	}
	if !tl.End(0, 50) {
		t.Fatalf("End(0, 50) = false")
	}
	if got := collect(tl, 100, 200); len(got) != 0 {
		t.Errorf("closed event still reported after its end: %v", got)
	}
	if tl.End(0, 60) {
		t.Errorf("End succeeded on an already closed event")
	}
}

func TestTimelineAppendOutOfOrderPanics(t *testing.T) {
	tl := NewTimeline[string]()
	tl.Append(5, 6, 0, "x")
	defer func() {
		if recover() == nil {
			t.Errorf("out of order append did not panic")
		}
	}()
	tl.Append(1, 2, 0, "y")
}

func TestTimelineAppendPacked(t *testing.T) {
	tl := NewTimeline[string]()
	depths := []int{
		tl.AppendPacked(0, 5, "r1"),
		tl.AppendPacked(1, 2, "r2"),
		tl.AppendPacked(3, 4, "r3"),
		tl.AppendPacked(6, 7, "r4"),
	}
	if diff := cmp.Diff([]int{0, 1, 1, 0}, depths); diff != "" {
		t.Errorf("depths mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineDownsampled(t *testing.T) {
	tl := NewTimeline[string]()
	for i := 0; i < 100; i++ {
		tl.Append(float64(i)*0.001, float64(i)*0.001+0.0005, 0, "tiny")
	}
	tl.Append(1, 2, 0, "big")
	n := 0
	tl.EnumerateEventsDownsampled(0, 10, 0.01, func(s, e float64, depth int, name *string) bool {
		n++
		return true
	})
	// One tiny event per 10ms pixel, plus the big one.
	if n < 5 || n > 20 {
		t.Errorf("downsampled enumeration reported %d events, want roughly 11", n)
	}
	full := 0
	tl.EnumerateEvents(0, 10, func(float64, float64, int, *string) bool { full++; return true })
	if full != 101 {
		t.Errorf("full enumeration reported %d events, want 101", full)
	}
}

func TestTimelineBounds(t *testing.T) {
	s, e, ok := nestedTimeline().Bounds()
	if !ok || s != 0 || e != 20 {
		t.Errorf("Bounds() = %v, %v, %t, want 0, 20, true", s, e, ok)
	}
	if _, _, ok := NewTimeline[int]().Bounds(); ok {
		t.Errorf("empty timeline has bounds")
	}
}
