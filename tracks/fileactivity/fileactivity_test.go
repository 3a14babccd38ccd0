package fileactivity

import (
	"fmt"
	"math"
	"testing"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks/trackstest"

	"github.com/google/go-cmp/cmp"
)

func newFileStore() *analysis.FileActivityStore {
	s := &analysis.FileActivityStore{}
	a := s.AddFile("/a.pak")
	s.AddActivity(a, 0, 0.001, analysis.FileActivity{Type: analysis.FileActivityOpen})
	s.AddActivity(a, 0.002, 0.004, analysis.FileActivity{Type: analysis.FileActivityRead, Offset: 512, Size: 4096})
	s.AddActivity(a, 2.0, 2.001, analysis.FileActivity{Type: analysis.FileActivityClose})

	b := s.AddFile("/b.ini")
	s.AddActivity(b, 0.001, 0.002, analysis.FileActivity{Type: analysis.FileActivityOpen, Failed: true})

	c := s.AddFile("/c.sav")
	s.AddActivity(c, 3, 3.001, analysis.FileActivity{Type: analysis.FileActivityOpen})
	s.AddActivity(c, 3.002, 3.003, analysis.FileActivity{Type: analysis.FileActivityClose})
	return s
}

func newFileView(t *testing.T) (*timing.View, *SharedState) {
	t.Helper()
	shared := NewSharedState()
	v, _ := trackstest.NewView(&analysis.Providers{FileActivity: newFileStore(), DurationSeconds: 10}, shared, 0, 4)
	return v, shared
}

func TestTrackPlacement(t *testing.T) {
	v, shared := newFileView(t)
	all := v.Tracks()
	if all[0] != timing.Track(shared.Overview()) {
		t.Errorf("overview isn't the first track")
	}
	if all[len(all)-1] != timing.Track(shared.Activity()) {
		t.Errorf("activity isn't the last track")
	}
}

func TestVirtualEvents(t *testing.T) {
	_, shared := newFileView(t)

	type ev struct {
		File  uint32
		Type  timing.FileActivityType
		Start float64
		End   float64
		Depth int
	}
	var got []ev
	for _, e := range shared.events {
		got = append(got, ev{e.fileID, e.typ, e.start, e.end, e.depth})
	}
	want := []ev{
		{0, timing.FileOpen, 0, 0.001, 0},
		{1, timing.FileOpen, 0.001, 0.002, 1},
		{0, timing.FileRead, 0.002, 0.004, 0},
		{1, timing.FileNotClosed, 0.002, math.Inf(1), 1},
		{0, timing.FileIdle, 0.004, 2.0, 0},
		{0, timing.FileClose, 2.0, 2.001, 0},
		{2, timing.FileOpen, 3, 3.001, 0},
		{2, timing.FileClose, 3.002, 3.003, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events differ (-want +got):\n%s", diff)
	}
	if shared.NumLanes() != 2 {
		t.Errorf("NumLanes() = %d, want 2", shared.NumLanes())
	}
}

func TestShortGapIsNotIdle(t *testing.T) {
	events := []fileEvent{
		{start: 0, end: 0.1, typ: timing.FileOpen},
		{start: 0.5, end: 0.6, typ: timing.FileClose},
	}
	events = appendVirtual(events, 0)
	if len(events) != 2 {
		t.Errorf("got %d events, want no virtual ones", len(events))
	}
}

func TestDrawStates(t *testing.T) {
	_, shared := newFileView(t)
	if got := shared.Activity().DrawState().NumEvents; got != 8 {
		t.Errorf("activity NumEvents = %d, want 8", got)
	}
	if got := shared.Activity().DrawState().NumLanes(); got != 2 {
		t.Errorf("activity NumLanes() = %d, want 2", got)
	}
	ov := shared.Overview().DrawState()
	if ov.NumEvents != 6 {
		t.Errorf("overview NumEvents = %d, want the 6 recorded events", ov.NumEvents)
	}
	if ov.NumLanes() != 1 {
		t.Errorf("overview NumLanes() = %d, want 1", ov.NumLanes())
	}
}

func TestMergeLanesMenu(t *testing.T) {
	v, shared := newFileView(t)
	var m timing.Menu
	shared.Activity().BuildContextMenu(&m)
	item, ok := m.Find("Merge Lanes")
	if !ok || !item.Checked() {
		t.Fatalf("Merge Lanes item missing or unchecked")
	}
	item.Execute()
	if shared.MergeLanes() {
		t.Fatalf("lanes still merged")
	}
	v.Tick(trackstest.Width, trackstest.Height)
	if got := shared.Activity().DrawState().NumLanes(); got != 3 {
		t.Errorf("NumLanes() = %d without merging, want one lane per file", got)
	}
}

func TestUnmergedLanesAreDistinct(t *testing.T) {
	const files = 40
	store := &analysis.FileActivityStore{}
	for i := range files {
		id := store.AddFile(fmt.Sprintf("/f%02d.pak", i))
		store.AddActivity(id, 0, 1, analysis.FileActivity{Type: analysis.FileActivityRead})
	}
	shared := NewSharedState()
	shared.SetMergeLanes(false)
	trackstest.NewView(&analysis.Providers{FileActivity: store, DurationSeconds: 2}, shared, 0, 2)

	if got := shared.NumLanes(); got != files {
		t.Errorf("NumLanes() = %d for %d concurrently open files", got, files)
	}
	lanes := map[int]string{}
	for _, ev := range shared.events {
		if ev.typ.IsVirtual() {
			continue
		}
		if other, ok := lanes[ev.depth]; ok && other != ev.path {
			t.Errorf("%s and %s share lane %d", other, ev.path, ev.depth)
		}
		lanes[ev.depth] = ev.path
	}
}

func TestShowOnlyErrors(t *testing.T) {
	v, shared := newFileView(t)
	shared.SetShowOnlyErrors(true)
	v.Tick(trackstest.Width, trackstest.Height)

	ov := shared.Overview().DrawState()
	if ov.NumEvents != 1 {
		t.Fatalf("overview NumEvents = %d, want 1", ov.NumEvents)
	}
	boxes := append(append([]timing.Box(nil), ov.BoxesAtDepth(0)...), ov.MergedBoxes...)
	if len(boxes) != 1 || boxes[0].Color != failedColor {
		t.Errorf("failed activity not drawn in the error color: %v", boxes)
	}
}

func TestFindAndTooltip(t *testing.T) {
	_, shared := newFileView(t)
	ev, ok := shared.Activity().FindFileActivityEvent(0, 0.002, 0.004).Get()
	if !ok {
		t.Fatal("read not found")
	}
	p := ev.Payload.(timing.FileActivityPayload)
	if p.Type != timing.FileRead || p.Path != "/a.pak" {
		t.Errorf("payload = %+v", p)
	}
	if shared.Activity().FindFileActivityEvent(1, 0.002, 0.004).IsSome() {
		t.Errorf("found the read on the wrong file")
	}

	var tt timing.Tooltip
	shared.Activity().InitTooltip(&tt, ev)
	if tt.Title != "Read" {
		t.Errorf("Title = %q", tt.Title)
	}
	if got, _ := tt.Value("Size"); got != "4.0 KiB" {
		t.Errorf("Size = %q", got)
	}

	nc, ok := shared.Activity().FindFileActivityEvent(1, 0.002, math.Inf(1)).Get()
	if !ok {
		t.Fatal("not-closed event not found")
	}
	tt.Reset()
	shared.Activity().InitTooltip(&tt, nc)
	if got, _ := tt.Value("End"); got != "ongoing" {
		t.Errorf("End = %q for a file that was never closed", got)
	}
}

func TestOverviewSkipsVirtualEvents(t *testing.T) {
	_, shared := newFileView(t)
	if shared.Overview().FindFileActivityEvent(0, 0.004, 2.0).IsSome() {
		t.Errorf("overview search found an idle event")
	}
	if !shared.Activity().FindFileActivityEvent(0, 0.004, 2.0).IsSome() {
		t.Errorf("activity search didn't find the idle event")
	}
}

func TestLabels(t *testing.T) {
	failed := fileEvent{typ: timing.FileOpen, failed: true, path: "/b.ini"}
	if got := failed.label(); got != "Failed Open [/b.ini]" {
		t.Errorf("label = %q", got)
	}
	ok := fileEvent{typ: timing.FileRead, path: "/a.pak"}
	if got := ok.label(); got != "Read [/a.pak]" {
		t.Errorf("label = %q", got)
	}
}

func TestNewActivityRefreshes(t *testing.T) {
	v, shared := newFileView(t)
	s := v.Analysis()
	p, scope := s.Write()
	p.FileActivity.(*analysis.FileActivityStore).AddFile("/d.log")
	scope.Close()
	before := shared.Activity().RebuildCount()
	v.Tick(trackstest.Width, trackstest.Height)
	if shared.Activity().RebuildCount() != before+1 {
		t.Errorf("activity track not rebuilt after the provider changed")
	}
}
