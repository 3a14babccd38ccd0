package frames

import (
	"testing"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks/trackstest"
)

func newFrameView(t *testing.T) (*timing.View, *SharedState, *analysis.FrameStore, *analysis.Session) {
	t.Helper()
	store := &analysis.FrameStore{}
	store.AddFrame(analysis.FrameGame, 0, 0.016)
	store.AddFrame(analysis.FrameGame, 0.016, 0.050)
	store.AddFrame(analysis.FrameGame, 0.050, 0.060)
	store.AddFrame(analysis.FrameRendering, 0.004, 0.020)
	shared := NewSharedState()
	v, s := trackstest.NewView(&analysis.Providers{Frames: store, DurationSeconds: 1}, shared, 0, 0.1)
	return v, shared, store, s
}

func TestSharedStateCreatesTracks(t *testing.T) {
	v, shared, _, _ := newFrameView(t)
	got := trackstest.TracksOfKind(v, Kind)
	if len(got) != int(analysis.NumFrameTypes) {
		t.Fatalf("got %d frame tracks, want %d", len(got), analysis.NumFrameTypes)
	}
	game, ok := shared.Track(analysis.FrameGame)
	if !ok || got[0] != timing.Track(game) {
		t.Fatalf("game frames aren't the first frame track")
	}
	if game.Name() != "Game Frames" {
		t.Errorf("Name() = %q, want %q", game.Name(), "Game Frames")
	}

	// More ticks don't create more tracks.
	v.Tick(trackstest.Width, trackstest.Height)
	if n := len(trackstest.TracksOfKind(v, Kind)); n != int(analysis.NumFrameTypes) {
		t.Errorf("got %d frame tracks after second tick", n)
	}
}

func TestNoFrameProvider(t *testing.T) {
	shared := NewSharedState()
	v, _ := trackstest.NewView(&analysis.Providers{DurationSeconds: 1}, shared, 0, 0.1)
	if n := len(v.Tracks()); n != 0 {
		t.Errorf("got %d tracks without a frame provider", n)
	}
}

func TestFrameDrawState(t *testing.T) {
	_, shared, _, _ := newFrameView(t)
	game, _ := shared.Track(analysis.FrameGame)
	ds := game.DrawState()
	if ds.NumEvents != 3 {
		t.Fatalf("NumEvents = %d, want 3", ds.NumEvents)
	}
	boxes := ds.BoxesAtDepth(0)
	if len(boxes) != 3 {
		t.Fatalf("got %d boxes, want 3", len(boxes))
	}
	if boxes[0].Color != FrameColor(0.016) || boxes[1].Color != FrameColor(0.050-0.016) {
		t.Errorf("frames aren't colored by duration")
	}
	if boxes[0].Color == boxes[1].Color {
		t.Errorf("fast and slow frames have the same color")
	}
	if ds.Texts[0].Text != "Frame 0 (16ms)" {
		t.Errorf("label = %q", ds.Texts[0].Text)
	}
}

func TestFrameColorClamps(t *testing.T) {
	if FrameColor(0.001) != FrameColor(targetFrameTime) {
		t.Errorf("frames under budget aren't all the same color")
	}
	if FrameColor(1) != FrameColor(slowFrameTime) {
		t.Errorf("frames over the slow threshold aren't all the same color")
	}
}

func TestNewFramesMarkTracksDirty(t *testing.T) {
	v, shared, _, s := newFrameView(t)
	game, _ := shared.Track(analysis.FrameGame)
	before := game.RebuildCount()

	v.Tick(trackstest.Width, trackstest.Height)
	if game.RebuildCount() != before {
		t.Fatalf("track rebuilt without new data")
	}

	p, scope := s.Write()
	p.Frames.(*analysis.FrameStore).AddFrame(analysis.FrameGame, 0.060, 0.070)
	scope.Close()
	v.Tick(trackstest.Width, trackstest.Height)
	if game.RebuildCount() != before+1 {
		t.Errorf("RebuildCount() = %d, want %d", game.RebuildCount(), before+1)
	}
	if game.DrawState().NumEvents != 4 {
		t.Errorf("NumEvents = %d, want 4", game.DrawState().NumEvents)
	}
}

func TestFindFrameEvent(t *testing.T) {
	_, shared, _, _ := newFrameView(t)
	game, _ := shared.Track(analysis.FrameGame)

	ev, ok := game.FindFrameEvent(1).Get()
	if !ok {
		t.Fatal("frame 1 not found")
	}
	if ev.StartTime != 0.016 || ev.EndTime != 0.050 {
		t.Errorf("frame 1 = [%v, %v], want [0.016, 0.05]", ev.StartTime, ev.EndTime)
	}
	if p, ok := ev.Payload.(timing.FramePayload); !ok || p.Index != 1 || p.Type != analysis.FrameGame {
		t.Errorf("payload = %#v", ev.Payload)
	}
	if game.FindFrameEvent(99).IsSome() {
		t.Errorf("found a frame that doesn't exist")
	}
}

func TestHoverAndTooltip(t *testing.T) {
	v, shared, _, _ := newFrameView(t)
	game, _ := shared.Track(analysis.FrameGame)

	x := v.Viewport.TimeToPixel(0.030)
	ev, ok := v.HoverAt(x, trackstest.LaneY(v, game, 0)).Get()
	if !ok {
		t.Fatal("nothing hovered")
	}
	if ev.Track != timing.Track(game) || ev.StartTime != 0.016 {
		t.Fatalf("hovered %v at %v", ev.Track.Name(), ev.StartTime)
	}

	tt, ok := v.Tooltip()
	if !ok {
		t.Fatal("no tooltip")
	}
	if tt.Title != "Game Frame 1" {
		t.Errorf("Title = %q", tt.Title)
	}
	if fps, _ := tt.Value("FPS"); fps != "29.4" {
		t.Errorf("FPS = %q, want %q", fps, "29.4")
	}
	if _, ok := tt.Value("Over budget"); !ok {
		t.Errorf("slow frame has no budget row")
	}
}

func TestSelectRightWalksFrames(t *testing.T) {
	v, shared, _, _ := newFrameView(t)
	game, _ := shared.Track(analysis.FrameGame)
	v.Select(game.FindFrameEvent(0))
	if !v.SelectRight() {
		t.Fatal("SelectRight failed")
	}
	if ev := v.Selected().MustGet(); ev.StartTime != 0.016 {
		t.Errorf("selected frame at %v, want 0.016", ev.StartTime)
	}
	if !v.SelectLeft() {
		t.Fatal("SelectLeft failed")
	}
	if ev := v.Selected().MustGet(); ev.StartTime != 0 {
		t.Errorf("selected frame at %v, want 0", ev.StartTime)
	}
}

func TestContextMenuTogglesVisibility(t *testing.T) {
	v, shared, _, _ := newFrameView(t)
	rendering, _ := shared.Track(analysis.FrameRendering)

	var m timing.Menu
	rendering.BuildContextMenu(&m)
	item, ok := m.Find("Show Rendering Frames")
	if !ok {
		t.Fatal("no visibility item")
	}
	if !item.Checked() {
		t.Errorf("item unchecked for a visible track")
	}
	item.Execute()
	if rendering.IsVisible() || item.Checked() {
		t.Errorf("track still visible after toggling")
	}

	// The choice carries over to the next session.
	v.EndSession()
	v.BeginSession(analysis.NewSession("again", &analysis.Providers{Frames: &analysis.FrameStore{}, DurationSeconds: 1}))
	v.Tick(trackstest.Width, trackstest.Height)
	rendering, _ = shared.Track(analysis.FrameRendering)
	if rendering.IsVisible() {
		t.Errorf("hidden frame type visible in the next session")
	}
}

func TestEndSessionDropsTracks(t *testing.T) {
	v, shared, _, _ := newFrameView(t)
	v.EndSession()
	if _, ok := shared.Track(analysis.FrameGame); ok {
		t.Errorf("track survived the end of the session")
	}
	if len(v.Tracks()) != 0 {
		t.Errorf("view still has %d tracks", len(v.Tracks()))
	}
}
