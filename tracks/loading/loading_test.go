package loading

import (
	"testing"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks/trackstest"

	"github.com/google/go-cmp/cmp"
)

func newLoadStore() *analysis.LoadTimeStore {
	s := analysis.NewLoadTimeStore()
	pkg := s.AddPackage(analysis.PackageInfo{Name: "/Game/Maps/Arena", Size: 4096})
	exp := s.AddExport(analysis.ExportInfo{ClassName: "StaticMesh", Package: pkg})
	s.MainThread.Append(0.001, 0.030, 0, analysis.LoadEvent{
		Package: pkg, Export: analysis.NoID, PackageEventType: analysis.PackageEventProcessImportsAndExports,
	})
	s.MainThread.Append(0.005, 0.010, 1, analysis.LoadEvent{
		Package: pkg, Export: exp, PackageEventType: analysis.PackageEventNone, ExportEventType: analysis.ExportEventSerialize,
	})
	s.AsyncThread.Append(0.002, 0.004, 0, analysis.LoadEvent{
		Package: 7, Export: analysis.NoID, PackageEventType: analysis.PackageEventCreateLinker,
	})
	return s
}

func newLoadingView(t *testing.T) (*timing.View, *SharedState, *analysis.Session) {
	t.Helper()
	shared := NewSharedState()
	v, s := trackstest.NewView(&analysis.Providers{LoadTime: newLoadStore(), DurationSeconds: 1}, shared, 0, 0.05)
	return v, shared, s
}

func TestTracksArePinned(t *testing.T) {
	v, _, _ := newLoadingView(t)
	got := trackstest.TracksOfKind(v, Kind)
	if len(got) != 2 {
		t.Fatalf("got %d loading tracks, want 2", len(got))
	}
	if got[0].Order() != MainThreadOrder || got[1].Order() != AsyncThreadOrder {
		t.Errorf("orders = %d, %d", got[0].Order(), got[1].Order())
	}
}

func TestEventNames(t *testing.T) {
	lp := newLoadStore()
	var main []analysis.LoadEvent
	lp.MainThread.EnumerateEvents(0, 1, func(_, _ float64, _ int, ev *analysis.LoadEvent) bool {
		main = append(main, *ev)
		return true
	})
	pkgEv, expEv := &main[0], &main[1]

	for _, tt := range []struct {
		mode     NameMode
		pkg, exp string
	}{
		{NameDefault, "/Game/Maps/Arena", "StaticMesh"},
		{NamePackageEventType, "ProcessImportsAndExports", "None"},
		{NameExportEventType, "ProcessImportsAndExports", "Serialize"},
		{NamePackageName, "/Game/Maps/Arena", "/Game/Maps/Arena"},
		{NameExportClass, "/Game/Maps/Arena", "StaticMesh"},
	} {
		if got := EventName(lp, pkgEv, 0, tt.mode); got != tt.pkg {
			t.Errorf("%s: package event named %q, want %q", tt.mode, got, tt.pkg)
		}
		if got := EventName(lp, expEv, 1, tt.mode); got != tt.exp {
			t.Errorf("%s: export event named %q, want %q", tt.mode, got, tt.exp)
		}
	}

	stale := analysis.LoadEvent{Package: 42, Export: analysis.NoID}
	if got := EventName(lp, &stale, 0, NameDefault); got != unknownName {
		t.Errorf("stale package named %q, want %q", got, unknownName)
	}
}

func TestDrawState(t *testing.T) {
	_, shared, _ := newLoadingView(t)
	main, _ := shared.Track(MainThread)
	ds := main.DrawState()
	if ds.NumLanes() != 2 {
		t.Fatalf("NumLanes() = %d, want 2", ds.NumLanes())
	}
	var texts []string
	for _, txt := range ds.Texts {
		texts = append(texts, txt.Text)
	}
	if diff := cmp.Diff([]string{"/Game/Maps/Arena", "StaticMesh"}, texts); diff != "" {
		t.Errorf("labels differ (-want +got):\n%s", diff)
	}

	async, _ := shared.Track(AsyncThread)
	if got := async.DrawState().NumEvents; got != 1 {
		t.Errorf("async NumEvents = %d, want 1", got)
	}
}

func TestNameModeMenu(t *testing.T) {
	v, shared, _ := newLoadingView(t)
	main, _ := shared.Track(MainThread)
	var m timing.Menu
	main.BuildContextMenu(&m)
	if m.Len() != int(numNameModes) {
		t.Fatalf("menu has %d items, want %d", m.Len(), numNameModes)
	}
	item, ok := m.Find("Package Event")
	if !ok {
		t.Fatal("no Package Event item")
	}
	item.Execute()
	if shared.NameMode() != NamePackageEventType || !item.Checked() {
		t.Fatalf("name mode = %s", shared.NameMode())
	}
	if !main.IsDirty() {
		t.Errorf("changing the name mode didn't mark the track dirty")
	}
	v.Tick(trackstest.Width, trackstest.Height)
	if got := main.DrawState().Texts[0].Text; got != "ProcessImportsAndExports" {
		t.Errorf("label = %q after switching modes", got)
	}
}

func TestFindLoadingEventAndTooltip(t *testing.T) {
	v, shared, _ := newLoadingView(t)
	main, _ := shared.Track(MainThread)
	ev, ok := main.FindLoadingEvent(0.005, 0.010, 1).Get()
	if !ok {
		t.Fatal("event not found")
	}
	p := ev.Payload.(timing.LoadingPayload)
	if p.Name != "StaticMesh" || p.Event.ExportEventType != analysis.ExportEventSerialize {
		t.Errorf("payload = %+v", p)
	}
	if main.FindLoadingEvent(0.005, 0.010, 0).IsSome() {
		t.Errorf("found an event at the wrong depth")
	}

	var tt timing.Tooltip
	main.InitTooltip(&tt, ev)
	for name, want := range map[string]string{
		"Package":      "/Game/Maps/Arena",
		"Package Size": "4.0 KiB",
		"Export Class": "StaticMesh",
		"Export Event": "Serialize",
	} {
		if got, _ := tt.Value(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	v.Select(container.Some(ev))
	if !v.SelectUp() {
		t.Fatal("SelectUp failed")
	}
	if got := v.Selected().MustGet(); got.Depth != 0 || got.StartTime != 0.001 {
		t.Errorf("SelectUp selected depth %d at %v", got.Depth, got.StartTime)
	}
}

func TestUnknownPackageTooltip(t *testing.T) {
	_, shared, _ := newLoadingView(t)
	async, _ := shared.Track(AsyncThread)
	ev, ok := async.FindLoadingEvent(0.002, 0.004, 0).Get()
	if !ok {
		t.Fatal("event not found")
	}
	var tt timing.Tooltip
	async.InitTooltip(&tt, ev)
	if tt.Title != unknownName {
		t.Errorf("Title = %q", tt.Title)
	}
	if _, ok := tt.Value("Package"); ok {
		t.Errorf("tooltip has a package row for a stale package")
	}
}

func TestNewEventsMarkDirty(t *testing.T) {
	v, shared, s := newLoadingView(t)
	async, _ := shared.Track(AsyncThread)
	before := async.RebuildCount()

	p, scope := s.Write()
	p.LoadTime.(*analysis.LoadTimeStore).AsyncThread.Append(0.010, 0.020, 0, analysis.LoadEvent{Package: 0, Export: analysis.NoID})
	scope.Close()
	v.Tick(trackstest.Width, trackstest.Height)

	if async.RebuildCount() != before+1 {
		t.Errorf("RebuildCount() = %d, want %d", async.RebuildCount(), before+1)
	}
	main, _ := shared.Track(MainThread)
	if main.IsDirty() {
		t.Errorf("main thread track dirty after async thread change")
	}
}

func TestParseNameMode(t *testing.T) {
	for m := NameDefault; m <= NameExportClass; m++ {
		got, ok := ParseNameMode(nameModeKeys[m])
		if !ok || got != m {
			t.Errorf("ParseNameMode(%q) = %v, %t, want %v", nameModeKeys[m], got, ok, m)
		}
	}
	if _, ok := ParseNameMode("by_color"); ok {
		t.Errorf("unknown mode accepted")
	}
}
