// Package loading shows asset loading on the main and the async loading thread.
package loading

import (
	"fmt"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/color"
	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks"

	"github.com/rs/zerolog"
)

const Kind timing.TrackKind = "loading"

// The loading tracks are pinned below the frame tracks.
const (
	MainThreadOrder  = -900
	AsyncThreadOrder = -899
)

// Thread identifies one of the two loading threads.
type Thread uint8

const (
	MainThread Thread = iota
	AsyncThread
	numThreads
)

func (th Thread) String() string {
	switch th {
	case MainThread:
		return "Main Thread"
	case AsyncThread:
		return "Async Thread"
	default:
		return fmt.Sprintf("Thread(%d)", th)
	}
}

// NameMode selects what loading events are labeled with.
type NameMode uint8

const (
	// NameDefault labels package-level events with the package name and nested events with the export's class.
	NameDefault NameMode = iota
	NamePackageEventType
	NameExportEventType
	NamePackageName
	NameExportClass
	numNameModes
)

var nameModeLabels = [...]string{
	NameDefault:          "Default",
	NamePackageEventType: "Package Event",
	NameExportEventType:  "Export Event",
	NamePackageName:      "Package Name",
	NameExportClass:      "Export Class Name",
}

var nameModeTooltips = [...]string{
	NameDefault:          "Package name for package events, export class name for nested events.",
	NamePackageEventType: "Type of the package event.",
	NameExportEventType:  "Type of the export event, or of the package event for package-level events.",
	NamePackageName:      "Name of the package being loaded.",
	NameExportClass:      "Class name of the export being loaded.",
}

// nameModeKeys are the names of the modes in configuration files.
var nameModeKeys = [...]string{
	NameDefault:          "default",
	NamePackageEventType: "package_event",
	NameExportEventType:  "export_event",
	NamePackageName:      "package_name",
	NameExportClass:      "export_class",
}

// ParseNameMode parses a mode's configuration name.
func ParseNameMode(key string) (NameMode, bool) {
	for m, k := range nameModeKeys {
		if k == key {
			return NameMode(m), true
		}
	}
	return NameDefault, false
}

func (m NameMode) String() string {
	if m < numNameModes {
		return nameModeLabels[m]
	}
	return fmt.Sprintf("NameMode(%d)", m)
}

const unknownName = "[unknown]"

// EventName returns the label of ev in mode m.
func EventName(lp analysis.LoadTimeProvider, ev *analysis.LoadEvent, depth int, m NameMode) string {
	packageName := func() string {
		if p, ok := lp.Package(ev.Package); ok {
			return p.Name
		}
		return unknownName
	}
	exportClass := func() string {
		if e, ok := lp.Export(ev.Export); ok {
			return e.ClassName
		}
		return unknownName
	}

	switch m {
	case NamePackageEventType:
		return ev.PackageEventType.String()
	case NameExportEventType:
		if ev.Export == analysis.NoID {
			return ev.PackageEventType.String()
		}
		return ev.ExportEventType.String()
	case NamePackageName:
		return packageName()
	case NameExportClass:
		if ev.Export == analysis.NoID {
			return packageName()
		}
		return exportClass()
	default:
		if depth == 0 || ev.Export == analysis.NoID {
			return packageName()
		}
		return exportClass()
	}
}

// typeID distinguishes package and export event types, for type filters.
func typeID(ev *analysis.LoadEvent) uint32 {
	if ev.Export == analysis.NoID {
		return uint32(ev.PackageEventType)
	}
	return 0x100 | uint32(ev.ExportEventType)
}

// SharedState creates the two loading tracks once the session has load time data.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	tracks   [numThreads]*LoadingTrack
	serials  [numThreads]uint64
	nameMode NameMode
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	return &SharedState{}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	s.tracks = [numThreads]*LoadingTrack{}
	s.serials = [numThreads]uint64{}
}

func (s *SharedState) OnEndSession(v *timing.View) {
	tracks.RemoveTracks(v, s.tracks[:]...)
	s.tracks = [numThreads]*LoadingTrack{}
	s.session = nil
}

func timeline(lp analysis.LoadTimeProvider, th Thread) analysis.EventTimeline[analysis.LoadEvent] {
	if th == AsyncThread {
		return lp.AsyncThreadTimeline()
	}
	return lp.MainThreadTimeline()
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.LoadTime == nil {
		return
	}

	for th := range numThreads {
		t := s.tracks[th]
		if t == nil {
			t = newLoadingTrack(s, v.Session.NextTrackID(), th)
			s.tracks[th] = t
			tracks.AddTrack(v, s.logger, t)
		}
		if serial := timeline(p.LoadTime, th).Serial(); serial != s.serials[th] {
			s.serials[th] = serial
			t.SetDirty()
		}
	}
}

func (s *SharedState) Track(th Thread) (*LoadingTrack, bool) {
	if th >= numThreads || s.tracks[th] == nil {
		return nil, false
	}
	return s.tracks[th], true
}

func (s *SharedState) NameMode() NameMode { return s.nameMode }

// SetNameMode changes how events are labeled on both tracks.
func (s *SharedState) SetNameMode(m NameMode) {
	if m == s.nameMode {
		return
	}
	s.nameMode = m
	for _, t := range s.tracks {
		if t != nil {
			t.SetDirty()
		}
	}
	s.logger.Debug().Stringer("mode", m).Msg("changed loading event names")
}

// LoadingTrack shows the loading events of one thread, nested by depth.
type LoadingTrack struct {
	timing.TimingEventsTrack

	shared *SharedState
	thread Thread
}

func newLoadingTrack(s *SharedState, id uint64, th Thread) *LoadingTrack {
	t := &LoadingTrack{shared: s, thread: th}
	t.Init(timing.NewBaseTrack(id, "Asset Loading - "+th.String(), Kind), t)
	if th == AsyncThread {
		t.SetOrder(AsyncThreadOrder)
	} else {
		t.SetOrder(MainThreadOrder)
	}
	return t
}

func (t *LoadingTrack) Thread() Thread { return t.thread }

func (t *LoadingTrack) BuildDrawState(b *timing.DrawStateBuilder, ctx *timing.UpdateContext) {
	p, release, ok := ctx.Providers()
	defer release()
	if !ok || p.LoadTime == nil {
		return
	}
	lp := p.LoadTime
	mode := t.shared.nameMode
	add := func(start, end float64, depth int, ev *analysis.LoadEvent) bool {
		name := EventName(lp, ev, depth, mode)
		b.AddEvent(start, end, depth, name, typeID(ev), color.ForName(name))
		return true
	}

	vp := b.Viewport()
	tl := timeline(lp, t.thread)
	if ctx.Session.Settings.UseDownsampling {
		tl.EnumerateEventsDownsampled(vp.StartTime(), vp.EndTime(), vp.DurationForDX(1), add)
	} else {
		tl.EnumerateEvents(vp.StartTime(), vp.EndTime(), add)
	}
}

func (t *LoadingTrack) search(s timing.EventSearch[*analysis.LoadEvent]) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.LoadTime == nil {
		return container.None[timing.TimingEvent]()
	}
	s.Procedure = tracks.TimelineProcedure(timeline(p.LoadTime, t.thread))
	m, ok := s.Run()
	if !ok {
		return container.None[timing.TimingEvent]()
	}
	return container.Some(timing.TimingEvent{
		Track:     t,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Depth:     m.Depth,
		Payload: timing.LoadingPayload{
			Event: *m.Payload,
			Name:  EventName(p.LoadTime, m.Payload, m.Depth, t.shared.nameMode),
		},
	})
}

func (t *LoadingTrack) SearchEvent(params timing.SearchParameters) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*analysis.LoadEvent]{Params: params})
}

// FindLoadingEvent finds the event spanning exactly [start, end] at depth.
func (t *LoadingTrack) FindLoadingEvent(start, end float64, depth int) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*analysis.LoadEvent]{
		Params: timing.SearchParameters{
			StartTime: start,
			EndTime:   end,
			Flags:     timing.SearchStopAtFirstMatch,
			EventFilter: func(s, e float64, d int) bool {
				return s == start && e == end && d == depth
			},
		},
	})
}

func (t *LoadingTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	lp, ok := ev.Payload.(timing.LoadingPayload)
	if !ok {
		return
	}
	tt.SetTitle(lp.Name)
	tt.AddEventTimes(ev.StartTime, ev.EndTime)
	tt.AddCount("Depth", int64(ev.Depth))
	tt.Add("Package Event", lp.Event.PackageEventType.String())

	if t.shared.session == nil {
		return
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.LoadTime == nil {
		return
	}
	if pkg, ok := p.LoadTime.Package(lp.Event.Package); ok {
		tt.Add("Package", pkg.Name)
		tt.AddBytes("Package Size", int64(pkg.Size))
	}
	if exp, ok := p.LoadTime.Export(lp.Event.Export); ok {
		tt.Add("Export Class", exp.ClassName)
		tt.Add("Export Event", lp.Event.ExportEventType.String())
	}
}

func (t *LoadingTrack) BuildContextMenu(m *timing.Menu) {
	m.BeginSection("Event Names")
	for mode := range numNameModes {
		m.AddItem(timing.MenuItem{
			Label:     mode.String(),
			Tooltip:   nameModeTooltips[mode],
			IsChecked: func() bool { return t.shared.nameMode == mode },
			Execute:   func() { t.shared.SetNameMode(mode) },
		})
	}
}
