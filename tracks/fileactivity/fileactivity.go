// Package fileactivity shows file I/O: an overview of all activity in one lane, and a detailed track with one lane
// per open file.
package fileactivity

import (
	"cmp"
	stdcolor "image/color"
	"math"
	"sort"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/color"
	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var local = message.NewPrinter(language.English)

const Kind timing.TrackKind = "file_activity"

// The overview goes above all other tracks, the detailed track below them.
const (
	OverviewOrder = -999999
	ActivityOrder = 999999
)

const (
	// idleThreshold is the shortest gap before a close that is shown as idle time.
	idleThreshold = 1.0
)

var activityColors = [...]stdcolor.NRGBA{
	timing.FileOpen:      color.ARGB(0xFFCCAA33),
	timing.FileClose:     color.ARGB(0xFF33AACC),
	timing.FileRead:      color.ARGB(0xFF33AA33),
	timing.FileWrite:     color.ARGB(0xFFDD33CC),
	timing.FileIdle:      color.ARGB(0x55333333),
	timing.FileNotClosed: color.ARGB(0x55553333),
}

var failedColor = color.ARGB(0xFFAA0000)

func activityColor(typ timing.FileActivityType, failed bool) stdcolor.NRGBA {
	if failed {
		return failedColor
	}
	if int(typ) < len(activityColors) {
		return activityColors[typ]
	}
	return failedColor
}

// fileEvent is one activity, recorded or synthesized, flattened out of the per-file timelines.
type fileEvent struct {
	start, end float64
	fileID     uint32
	path       string
	typ        timing.FileActivityType
	failed     bool
	offset     uint64
	size       uint64
	depth      int
}

func (ev *fileEvent) label() string {
	if ev.failed {
		return local.Sprintf("Failed %s [%s]", ev.typ, ev.path)
	}
	return local.Sprintf("%s [%s]", ev.typ, ev.path)
}

func (ev *fileEvent) payload() timing.FileActivityPayload {
	return timing.FileActivityPayload{
		FileID: ev.fileID,
		Path:   ev.path,
		Type:   ev.typ,
		Failed: ev.failed,
		Offset: ev.offset,
		Size:   ev.size,
	}
}

// SharedState owns the flattened file activity shared by the overview and the activity track.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	overview *FileActivityTrack
	activity *FileActivityTrack
	serial   uint64

	// events is sorted by start time.
	events   []fileEvent
	numLanes int

	mergeLanes     bool
	showOnlyErrors bool
	hideOverview   bool
	hideActivity   bool
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	return &SharedState{mergeLanes: true}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	s.overview, s.activity = nil, nil
	s.serial = 0
	s.events = nil
	s.numLanes = 0
}

func (s *SharedState) OnEndSession(v *timing.View) {
	tracks.RemoveTracks(v, s.overview, s.activity)
	s.overview, s.activity = nil, nil
	s.events = nil
	s.session = nil
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.FileActivity == nil {
		return
	}

	if s.overview == nil {
		s.overview = newFileActivityTrack(s, v.Session.NextTrackID(), "I/O Overview", OverviewOrder, true)
		s.overview.SetVisible(!s.hideOverview)
		tracks.AddTrack(v, s.logger, s.overview)
		s.activity = newFileActivityTrack(s, v.Session.NextTrackID(), "I/O Activity", ActivityOrder, false)
		s.activity.SetVisible(!s.hideActivity)
		tracks.AddTrack(v, s.logger, s.activity)
	}
	if serial := p.FileActivity.Serial(); serial != s.serial {
		s.serial = serial
		s.refresh(p.FileActivity)
	}
}

func (s *SharedState) Overview() *FileActivityTrack { return s.overview }
func (s *SharedState) Activity() *FileActivityTrack { return s.activity }

// ForceRefresh rebuilds the flattened activity from the provider.
func (s *SharedState) ForceRefresh() {
	if s.session == nil {
		return
	}
	p, scope := s.session.Read()
	defer scope.Close()
	if p.FileActivity != nil {
		s.refresh(p.FileActivity)
	}
}

func (s *SharedState) refresh(fp analysis.FileActivityProvider) {
	s.events = s.events[:0]
	var files []timing.Interval
	var fileEvents [][2]int

	fp.EnumerateFileActivity(func(f analysis.FileInfo, tl analysis.EventTimeline[analysis.FileActivity]) bool {
		first := len(s.events)
		tl.EnumerateEvents(math.Inf(-1), math.Inf(1), func(start, end float64, _ int, act *analysis.FileActivity) bool {
			s.events = append(s.events, fileEvent{
				start:  start,
				end:    end,
				fileID: f.ID,
				path:   f.Path,
				typ:    timing.FileActivityType(act.Type),
				failed: act.Failed,
				offset: act.Offset,
				size:   act.Size,
			})
			return true
		})
		if len(s.events) == first {
			return true
		}
		s.events = appendVirtual(s.events, first)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, ev := range s.events[first:] {
			lo, hi = min(lo, ev.start), max(hi, ev.end)
		}
		files = append(files, timing.Interval{Start: lo, End: hi})
		fileEvents = append(fileEvents, [2]int{first, len(s.events)})
		return true
	})

	if s.mergeLanes {
		var lanes []int
		lanes, s.numLanes = timing.AssignLanes(files)
		for i, r := range fileEvents {
			for j := r[0]; j < r[1]; j++ {
				s.events[j].depth = lanes[i]
			}
		}
	} else {
		// Every file with activity gets a lane of its own, in enumeration order.
		s.numLanes = len(fileEvents)
		for i, r := range fileEvents {
			for j := r[0]; j < r[1]; j++ {
				s.events[j].depth = i
			}
		}
	}

	slices.SortStableFunc(s.events, func(a, b fileEvent) int {
		return cmp.Compare(a.start, b.start)
	})

	for _, t := range []*FileActivityTrack{s.overview, s.activity} {
		if t != nil {
			t.SetDirty()
		}
	}
	s.logger.Debug().
		Int("events", len(s.events)).
		Int("files", len(files)).
		Int("lanes", s.numLanes).
		Bool("merged", s.mergeLanes).
		Msg("refreshed file activity")
}

// appendVirtual synthesizes idle and not-closed events for the file whose activities are events[first:], which
// are in order of start time.
func appendVirtual(events []fileEvent, first int) []fileEvent {
	lastEnd := math.Inf(-1)
	closed := false
	n := len(events)
	for i := first; i < n; i++ {
		ev := events[i]
		closed = ev.typ == timing.FileClose
		if closed && !math.IsInf(lastEnd, -1) && ev.start-lastEnd > idleThreshold {
			events = append(events, fileEvent{
				start:  lastEnd,
				end:    ev.start,
				fileID: ev.fileID,
				path:   ev.path,
				typ:    timing.FileIdle,
			})
		}
		lastEnd = max(lastEnd, ev.end)
	}
	if !closed {
		last := events[n-1]
		events = append(events, fileEvent{
			start:  lastEnd,
			end:    math.Inf(1),
			fileID: last.fileID,
			path:   last.path,
			typ:    timing.FileNotClosed,
		})
	}
	// Keep the file's events in start order.
	slices.SortStableFunc(events[first:], func(a, b fileEvent) int {
		return cmp.Compare(a.start, b.start)
	})
	return events
}

// NumLanes is the number of lanes the activity track needs for the whole session.
func (s *SharedState) NumLanes() int { return s.numLanes }

func (s *SharedState) MergeLanes() bool     { return s.mergeLanes }
func (s *SharedState) ShowOnlyErrors() bool { return s.showOnlyErrors }

// SetMergeLanes packs files into as few lanes as possible instead of giving each file a fixed lane.
func (s *SharedState) SetMergeLanes(merge bool) {
	if merge == s.mergeLanes {
		return
	}
	s.mergeLanes = merge
	s.ForceRefresh()
}

// SetShowOnlyErrors restricts both tracks to failed activities.
func (s *SharedState) SetShowOnlyErrors(only bool) {
	if only == s.showOnlyErrors {
		return
	}
	s.showOnlyErrors = only
	for _, t := range []*FileActivityTrack{s.overview, s.activity} {
		if t != nil {
			t.SetDirty()
		}
	}
}

func (s *SharedState) setTrackVisible(overview, visible bool) {
	t := s.activity
	if overview {
		s.hideOverview = !visible
		t = s.overview
	} else {
		s.hideActivity = !visible
	}
	if tracks.SetVisible(visible, t) {
		s.logger.Debug().Bool("overview", overview).Bool("visible", visible).Msg("changed track visibility")
	}
}

// visibleEvents calls fn for the shown events overlapping [start, end], in order of start time.
func (s *SharedState) visibleEvents(start, end float64, overview bool, fn func(ev *fileEvent) bool) {
	// Only the upper bound is found by search. Not-closed events end at +Inf, so no maximum duration bounds how far
	// back an overlapping event can start, and events before start are skipped one by one.
	n := sort.Search(len(s.events), func(i int) bool { return s.events[i].start > end })
	for i := range s.events[:n] {
		ev := &s.events[i]
		if ev.end < start {
			continue
		}
		if s.showOnlyErrors && !ev.failed {
			continue
		}
		if overview && ev.typ.IsVirtual() {
			continue
		}
		if !fn(ev) {
			return
		}
	}
}

// FileActivityTrack is either the overview, which shows all recorded activity in one lane, or the activity track,
// which shows each file in its own lane, including idle and never-closed time.
type FileActivityTrack struct {
	timing.TimingEventsTrack

	shared   *SharedState
	overview bool
}

func newFileActivityTrack(s *SharedState, id uint64, name string, order int, overview bool) *FileActivityTrack {
	t := &FileActivityTrack{shared: s, overview: overview}
	t.Init(timing.NewBaseTrack(id, name, Kind), t)
	t.SetOrder(order)
	return t
}

func (t *FileActivityTrack) IsOverview() bool { return t.overview }

func (t *FileActivityTrack) depth(ev *fileEvent) int {
	if t.overview {
		return 0
	}
	return ev.depth
}

func (t *FileActivityTrack) BuildDrawState(b *timing.DrawStateBuilder, ctx *timing.UpdateContext) {
	vp := b.Viewport()
	t.shared.visibleEvents(vp.StartTime(), vp.EndTime(), t.overview, func(ev *fileEvent) bool {
		b.AddEvent(ev.start, ev.end, t.depth(ev), ev.label(), uint32(ev.typ), activityColor(ev.typ, ev.failed))
		return true
	})
}

func (t *FileActivityTrack) search(s timing.EventSearch[*fileEvent]) container.Option[timing.TimingEvent] {
	s.Procedure = func(ctx *timing.SearchContext[*fileEvent]) {
		t.shared.visibleEvents(ctx.StartTime(), ctx.EndTime(), t.overview, func(ev *fileEvent) bool {
			ctx.Check(ev.start, ev.end, t.depth(ev), ev)
			return ctx.ShouldContinue()
		})
	}
	m, ok := s.Run()
	if !ok {
		return container.None[timing.TimingEvent]()
	}
	return container.Some(timing.TimingEvent{
		Track:     t,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Depth:     m.Depth,
		Payload:   m.Payload.payload(),
	})
}

func (t *FileActivityTrack) SearchEvent(params timing.SearchParameters) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*fileEvent]{Params: params})
}

// FindFileActivityEvent finds the activity of file spanning exactly [start, end].
func (t *FileActivityTrack) FindFileActivityEvent(file uint32, start, end float64) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*fileEvent]{
		Params: timing.SearchParameters{
			StartTime: start,
			EndTime:   end,
			Flags:     timing.SearchStopAtFirstMatch,
		},
		PayloadFilter: func(s, e float64, _ int, ev *fileEvent) bool {
			return ev.fileID == file && s == start && e == end
		},
	})
}

func (t *FileActivityTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	p, ok := ev.Payload.(timing.FileActivityPayload)
	if !ok {
		return
	}
	if p.Failed {
		tt.SetTitle(local.Sprintf("Failed %s", p.Type))
	} else {
		tt.SetTitle(p.Type.String())
	}
	tt.Add("Path", p.Path)
	tt.AddCount("File", int64(p.FileID))
	tt.AddEventTimes(ev.StartTime, ev.EndTime)
	if p.Type == timing.FileRead || p.Type == timing.FileWrite {
		tt.AddBytes("Offset", int64(p.Offset))
		tt.AddBytes("Size", int64(p.Size))
	}
}

func (t *FileActivityTrack) BuildContextMenu(m *timing.Menu) {
	s := t.shared
	m.BeginSection("File Activity")
	m.AddItems(
		timing.MenuItem{
			Label:     "Merge Lanes",
			Tooltip:   "Let files that aren't open at the same time share a lane.",
			IsChecked: s.MergeLanes,
			Execute:   func() { s.SetMergeLanes(!s.mergeLanes) },
		},
		timing.MenuItem{
			Label:     "Show Only Errors",
			Tooltip:   "Only show failed file activities.",
			IsChecked: s.ShowOnlyErrors,
			Execute:   func() { s.SetShowOnlyErrors(!s.showOnlyErrors) },
		},
		timing.MenuItem{
			Label:     "Show I/O Overview Track",
			IsChecked: func() bool { return !s.hideOverview },
			Execute:   func() { s.setTrackVisible(true, s.hideOverview) },
		},
		timing.MenuItem{
			Label:     "Show I/O Activity Track",
			IsChecked: func() bool { return !s.hideActivity },
			Execute:   func() { s.setTrackVisible(false, s.hideActivity) },
		},
	)
}
