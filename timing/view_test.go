package timing

import (
	"testing"

	"honnef.co/go/timingview/analysis"
)

// testExtender creates its tracks on the first tick of a session.
type testExtender struct {
	tracks  [][]testEvent
	created []*testTrack
	begun   int
	ended   int
	ticks   int
}

func (e *testExtender) OnBeginSession(v *View) {
	e.begun++
	e.created = nil
}

func (e *testExtender) OnEndSession(v *View) { e.ended++ }

func (e *testExtender) Tick(v *View, s *analysis.Session) {
	e.ticks++
	if e.created != nil {
		return
	}
	for i, events := range e.tracks {
		tr := newTestTrack(v.Session, events...)
		tr.SetOrder(len(e.tracks) - i)
		v.AddTrack(tr)
		e.created = append(e.created, tr)
	}
}

func newTestView(tracks ...[]testEvent) (*View, *testExtender) {
	sc, _ := newTestSession()
	v := NewView(1000, 500, sc)
	ext := &testExtender{tracks: tracks}
	v.AddExtender(ext)
	v.BeginSession(analysis.NewSession("test", &analysis.Providers{DurationSeconds: 1}))
	v.Viewport.ZoomOnTimeInterval(0, 0.05)
	v.Tick(1000, 500)
	return v, ext
}

var nested = []testEvent{
	{start: 0, end: 0.04, depth: 0, name: "parent"},
	{start: 0.002, end: 0.008, depth: 1, name: "child a"},
	{start: 0.010, end: 0.030, depth: 1, name: "child b"},
	{start: 0.032, end: 0.035, depth: 1, name: "child c"},
	{start: 0.012, end: 0.014, depth: 2, name: "grandchild"},
}

func TestViewTickLifecycle(t *testing.T) {
	v, ext := newTestView(twoFrames, nested)
	if ext.begun != 1 || ext.ticks != 1 {
		t.Fatalf("extender saw %d session begins and %d ticks", ext.begun, ext.ticks)
	}
	tracks := v.Tracks()
	if len(tracks) != 2 || tracks[0] != Track(ext.created[1]) {
		t.Fatalf("tracks aren't sorted by order")
	}
	if v.Viewport.MaxValidTime() != 1 {
		t.Errorf("MaxValidTime() = %v, want the session's duration", v.Viewport.MaxValidTime())
	}
	if tracks[0].PosY() != 0 || tracks[1].PosY() != tracks[0].Height() {
		t.Errorf("tracks laid out at %v and %v", tracks[0].PosY(), tracks[1].PosY())
	}
	if v.Viewport.ScrollHeight() != tracks[0].Height()+tracks[1].Height() {
		t.Errorf("ScrollHeight() = %v", v.Viewport.ScrollHeight())
	}
	if v.Viewport.Dirty() != 0 {
		t.Errorf("viewport still dirty after Tick: %b", v.Viewport.Dirty())
	}

	for i := 0; i < 10; i++ {
		v.Tick(1000, 500)
	}
	for _, tr := range ext.created {
		if tr.RebuildCount() != 1 {
			t.Errorf("idle view rebuilt track %d %d times", tr.ID(), tr.RebuildCount())
		}
	}

	v.EndSession()
	if ext.ended != 1 || len(v.Tracks()) != 0 {
		t.Errorf("EndSession: extender ended %d times, %d tracks remain", ext.ended, len(v.Tracks()))
	}
}

func TestViewFilterChangeMarksTracksDirty(t *testing.T) {
	v, ext := newTestView(twoFrames)
	tr := ext.created[0]
	f := NewTypeFilter()
	v.Session.Filters.Set(f)
	v.Tick(1000, 500)
	if tr.RebuildCount() != 2 || tr.FilteredRebuildCount() != 1 {
		t.Errorf("after setting a filter: %d rebuilds, %d filtered rebuilds", tr.RebuildCount(), tr.FilteredRebuildCount())
	}
	f.Add(7)
	v.Tick(1000, 500)
	if tr.FilteredRebuildCount() != 2 {
		t.Errorf("after changing the filter: %d filtered rebuilds, want 2", tr.FilteredRebuildCount())
	}
	v.Session.Filters.Clear()
	v.Tick(1000, 500)
	if tr.FilteredDrawState() != nil {
		t.Errorf("filtered state survived clearing the filter")
	}
}

// pointAt returns the viewport coordinates of the middle of time t at depth in track tr.
func pointAt(v *View, tr Track, t float64, depth int) (float32, float32) {
	x := v.Viewport.TimeToPixel(t)
	y := v.Viewport.ViewportY(tr.PosY()) + v.Layout.LaneY(depth) + v.Layout.EventH/2
	return x, y
}

func TestViewHover(t *testing.T) {
	v, ext := newTestView(nested)
	tr := ext.created[0]

	x, y := pointAt(v, tr, 0.013, 2)
	ev, ok := v.HoverAt(x, y).Get()
	if !ok || ev.Depth != 2 || ev.StartTime != 0.012 {
		t.Fatalf("hovering the grandchild found %+v, %t", ev, ok)
	}
	tt, ok := v.Tooltip()
	if !ok || tt == nil {
		t.Errorf("no tooltip for the hovered event")
	}

	x, y = pointAt(v, tr, 0.009, 1)
	if v.HoverAt(x, y).IsSome() {
		t.Errorf("hovering the gap between children found an event")
	}

	if v.HoverAt(x, 10000).IsSome() {
		t.Errorf("hovering below all tracks found an event")
	}
}

func TestViewNavigation(t *testing.T) {
	v, ext := newTestView(nested)
	tr := ext.created[0]
	x, y := pointAt(v, tr, 0.020, 1)
	v.HoverAt(x, y)
	v.SelectHovered()
	name := func() string {
		ev, ok := v.Selected().Get()
		if !ok {
			return ""
		}
		for _, e := range nested {
			if e.start == ev.StartTime && e.depth == ev.Depth {
				return e.name
			}
		}
		return "?"
	}
	if name() != "child b" {
		t.Fatalf("selected %q, want child b", name())
	}

	steps := []struct {
		move func() bool
		ok   bool
		want string
	}{
		{v.SelectLeft, true, "child a"},
		{v.SelectLeft, false, "child a"},
		{v.SelectRight, true, "child b"},
		{v.SelectRight, true, "child c"},
		{v.SelectRight, false, "child c"},
		{v.SelectUp, true, "parent"},
		{v.SelectUp, false, "parent"},
		{v.SelectDown, true, "child b"},
		{v.SelectDown, true, "grandchild"},
		{v.SelectDown, false, "grandchild"},
		{v.SelectUp, true, "child b"},
	}
	for i, step := range steps {
		if ok := step.move(); ok != step.ok {
			t.Errorf("step %d: moved = %t, want %t", i, ok, step.ok)
		}
		if got := name(); got != step.want {
			t.Fatalf("step %d: selected %q, want %q", i, got, step.want)
		}
	}
}

func TestViewBringIntoView(t *testing.T) {
	v, _ := newTestView()
	vp := v.Viewport
	v.BringIntoView(0.01, 0.02)
	if vp.StartTime() != 0 {
		t.Errorf("visible interval scrolled the viewport to %v", vp.StartTime())
	}

	v.BringIntoView(0.1, 0.11)
	margin := bringIntoViewMargin * vp.Duration()
	if vp.EndTime() < 0.11+margin-1/vp.ScaleX() || vp.StartTime() > 0.1 {
		t.Errorf("viewport [%v, %v] doesn't show [0.1, 0.11] with margin", vp.StartTime(), vp.EndTime())
	}

	v.BringIntoView(0.001, 0.002)
	if vp.StartTime() > 0.001-margin+1/vp.ScaleX() {
		t.Errorf("viewport starts at %v, want a margin before 0.001", vp.StartTime())
	}
}

func TestViewFrameSelection(t *testing.T) {
	v, _ := newTestView()
	if v.FrameSelection() {
		t.Errorf("FrameSelection without a selection reported a change")
	}
	v.SelectTimeInterval(0.5, 0.1)
	if !v.FrameSelection() {
		t.Fatal("FrameSelection didn't zoom")
	}
	vp := v.Viewport
	if vp.StartTime() > 0.5 || vp.EndTime() < 0.6 {
		t.Errorf("viewport [%v, %v] doesn't contain the selection", vp.StartTime(), vp.EndTime())
	}
}

func TestViewDraw(t *testing.T) {
	v, _ := newTestView(twoFrames, nested)
	r := &recordingRenderer{}
	v.Draw(r)
	// Background, two frames and five nested events.
	if len(r.fills) != 8 {
		t.Errorf("got %d filled rects, want 8", len(r.fills))
	}
	if r.fills[0].c != colorBackground {
		t.Errorf("first fill isn't the background")
	}
}

func TestViewZoomAndPan(t *testing.T) {
	v, _ := newTestView(twoFrames)
	vp := v.Viewport
	before := vp.PixelToTime(300)
	v.ZoomAt(2, 300)
	if after := vp.PixelToTime(300); after-before > 1e-9 || before-after > 1e-9 {
		t.Errorf("zoom moved the time under the cursor from %v to %v", before, after)
	}
	start := vp.StartTime()
	v.Pan(-100, 0)
	if vp.StartTime() <= start {
		t.Errorf("panning left didn't move the viewport forward in time")
	}
	v.Tick(1000, 500)
	if v.Animating() {
		t.Errorf("view still animating after settling")
	}
}
