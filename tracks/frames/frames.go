// Package frames shows game and rendering frames, one track per frame type.
package frames

import (
	stdcolor "image/color"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/color"
	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var local = message.NewPrinter(language.English)

const Kind timing.TrackKind = "frames"

// Frame tracks sit above everything but the file activity overview.
const baseOrder = -1000

// Frames at or below targetFrameTime are drawn in fastColor, frames at or above slowFrameTime in slowColor.
const (
	targetFrameTime = 1.0 / 60
	slowFrameTime   = 1.0 / 30
)

var (
	fastColor = color.Oklch{L: 0.74, C: 0.15, H: 145, A: 1}
	slowColor = color.Oklch{L: 0.62, C: 0.20, H: 28, A: 1}
)

// FrameColor colors a frame by how far it exceeds the frame budget.
func FrameColor(d float64) stdcolor.NRGBA {
	return color.Gradient(fastColor, slowColor, float32((d-targetFrameTime)/(slowFrameTime-targetFrameTime)))
}

// SharedState creates the frame tracks of a session and keeps them in sync with the frame provider.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	tracks [analysis.NumFrameTypes]*FrameTrack
	hidden [analysis.NumFrameTypes]bool
	serial uint64
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	return &SharedState{}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	s.tracks = [analysis.NumFrameTypes]*FrameTrack{}
	s.serial = 0
}

func (s *SharedState) OnEndSession(v *timing.View) {
	tracks.RemoveTracks(v, s.tracks[:]...)
	s.tracks = [analysis.NumFrameTypes]*FrameTrack{}
	s.session = nil
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.Frames == nil {
		return
	}

	for ft := range analysis.NumFrameTypes {
		if s.tracks[ft] != nil {
			continue
		}
		t := newFrameTrack(s, v.Session.NextTrackID(), ft)
		t.SetVisible(!s.hidden[ft])
		s.tracks[ft] = t
		tracks.AddTrack(v, s.logger, t)
	}

	if serial := p.Frames.Serial(); serial != s.serial {
		s.serial = serial
		for _, t := range s.tracks {
			t.SetDirty()
		}
	}
}

// Track returns the track showing frames of type ft, if it has been created.
func (s *SharedState) Track(ft analysis.FrameType) (*FrameTrack, bool) {
	if ft >= analysis.NumFrameTypes || s.tracks[ft] == nil {
		return nil, false
	}
	return s.tracks[ft], true
}

func (s *SharedState) IsVisible(ft analysis.FrameType) bool { return !s.hidden[ft] }

// SetVisible shows or hides frames of type ft. The choice persists across sessions.
func (s *SharedState) SetVisible(ft analysis.FrameType, visible bool) {
	s.hidden[ft] = !visible
	tracks.SetVisible(visible, s.tracks[ft])
}

func (s *SharedState) ToggleVisible(ft analysis.FrameType) {
	s.SetVisible(ft, s.hidden[ft])
}

// FrameTrack shows the frames of one frame type.
type FrameTrack struct {
	timing.TimingEventsTrack

	shared    *SharedState
	frameType analysis.FrameType
}

func newFrameTrack(s *SharedState, id uint64, ft analysis.FrameType) *FrameTrack {
	t := &FrameTrack{shared: s, frameType: ft}
	t.Init(timing.NewBaseTrack(id, ft.String()+" Frames", Kind), t)
	t.SetOrder(baseOrder + int(ft))
	return t
}

func (t *FrameTrack) FrameType() analysis.FrameType { return t.frameType }

func frameLabel(f *analysis.Frame) string {
	return local.Sprintf("Frame %d (%s)", f.Index, timing.FormatDuration(f.Duration()))
}

func (t *FrameTrack) BuildDrawState(b *timing.DrawStateBuilder, ctx *timing.UpdateContext) {
	p, release, ok := ctx.Providers()
	defer release()
	if !ok || p.Frames == nil {
		return
	}
	vp := b.Viewport()
	p.Frames.EnumerateFrames(t.frameType, vp.StartTime(), vp.EndTime(), func(f *analysis.Frame) bool {
		b.AddEvent(f.StartTime, f.EndTime, 0, frameLabel(f), uint32(t.frameType), FrameColor(f.Duration()))
		return true
	})
}

func (t *FrameTrack) search(s timing.EventSearch[*analysis.Frame]) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.Frames == nil {
		return container.None[timing.TimingEvent]()
	}
	s.Procedure = func(ctx *timing.SearchContext[*analysis.Frame]) {
		p.Frames.EnumerateFrames(t.frameType, ctx.StartTime(), ctx.EndTime(), func(f *analysis.Frame) bool {
			ctx.Check(f.StartTime, f.EndTime, 0, f)
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
		Depth:     0,
		Payload:   timing.FramePayload{Type: t.frameType, Index: m.Payload.Index},
	})
}

func (t *FrameTrack) SearchEvent(params timing.SearchParameters) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*analysis.Frame]{Params: params})
}

// FindFrameEvent finds the frame with the given index.
func (t *FrameTrack) FindFrameEvent(index uint64) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	if p.Frames == nil {
		scope.Close()
		return container.None[timing.TimingEvent]()
	}
	f, ok := p.Frames.Frame(t.frameType, index)
	scope.Close()
	if !ok {
		return container.None[timing.TimingEvent]()
	}
	return t.search(timing.EventSearch[*analysis.Frame]{
		Params: timing.SearchParameters{
			StartTime: f.StartTime,
			EndTime:   f.EndTime,
			Flags:     timing.SearchStopAtFirstMatch,
		},
		PayloadFilter: func(start, end float64, _ int, _ *analysis.Frame) bool {
			return start == f.StartTime && end == f.EndTime
		},
	})
}

func (t *FrameTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	p, ok := ev.Payload.(timing.FramePayload)
	if !ok {
		return
	}
	tt.SetTitle(local.Sprintf("%s Frame %d", p.Type, p.Index))
	tt.AddEventTimes(ev.StartTime, ev.EndTime)
	if d := ev.Duration(); d > 0 {
		tt.Addf("FPS", "%.1f", 1/d)
	}
	if d := ev.Duration(); d > targetFrameTime {
		tt.AddDuration("Over budget", d-targetFrameTime)
	}
}

func (t *FrameTrack) BuildContextMenu(m *timing.Menu) {
	m.BeginSection("Frames")
	for ft := range analysis.NumFrameTypes {
		m.AddItem(timing.MenuItem{
			Label:     local.Sprintf("Show %s Frames", ft),
			Tooltip:   local.Sprintf("Show or hide the %s frames track.", ft),
			IsChecked: func() bool { return t.shared.IsVisible(ft) },
			Execute:   func() { t.shared.ToggleVisible(ft) },
		})
	}
}
