// Package gameplay shows the instant events of gameplay objects, one track per object.
package gameplay

import (
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

const Kind timing.TrackKind = "gameplay"

const baseOrder = 2000

// instantWidth is the width, in pixels, of the box drawn for an instant event.
const instantWidth = 3

// SharedState creates a track for every gameplay object.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	tracks map[uint64]*ObjectTrack
	// classes are the class names of all objects seen in this session.
	classes container.Set[string]
	serial  uint64
	// hiddenClasses outlives sessions.
	hiddenClasses container.Set[string]
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	return &SharedState{
		tracks:        map[uint64]*ObjectTrack{},
		classes:       container.Set[string]{},
		hiddenClasses: container.Set[string]{},
	}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	clear(s.tracks)
	clear(s.classes)
	s.serial = 0
}

func (s *SharedState) OnEndSession(v *timing.View) {
	for _, t := range s.tracks {
		tracks.RemoveTracks(v, t)
	}
	clear(s.tracks)
	clear(s.classes)
	s.session = nil
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.Gameplay == nil {
		return
	}
	serial := p.Gameplay.ObjectSerial()
	if serial == s.serial {
		return
	}
	s.serial = serial

	for i, obj := range p.Gameplay.Objects() {
		if t, ok := s.tracks[obj.ID]; ok {
			t.SetDirty()
			continue
		}
		t := newObjectTrack(s, v.Session.NextTrackID(), obj)
		t.SetOrder(baseOrder + i)
		t.SetVisible(!s.hiddenClasses.Has(obj.ClassName))
		s.tracks[obj.ID] = t
		s.classes.Add(obj.ClassName)
		tracks.AddTrack(v, s.logger, t)
	}
}

// Track returns the track of the object with the given ID.
func (s *SharedState) Track(id uint64) (*ObjectTrack, bool) {
	t, ok := s.tracks[id]
	return t, ok
}

func (s *SharedState) NumTracks() int { return len(s.tracks) }

func (s *SharedState) IsClassVisible(class string) bool { return !s.hiddenClasses.Has(class) }

// SetClassVisible shows or hides the tracks of all objects of a class.
func (s *SharedState) SetClassVisible(class string, visible bool) {
	if visible {
		s.hiddenClasses.Delete(class)
	} else {
		s.hiddenClasses.Add(class)
	}
	for _, t := range s.tracks {
		if t.object.ClassName == class {
			t.SetVisible(visible)
		}
	}
}

// ObjectTrack shows the events of one gameplay object.
type ObjectTrack struct {
	timing.TimingEventsTrack

	shared *SharedState
	object analysis.GameplayObject
	// width is the duration covered by an instant's box at the current zoom. Searches use it so that hovering
	// the box hits the event.
	width float64
}

func newObjectTrack(s *SharedState, id uint64, obj analysis.GameplayObject) *ObjectTrack {
	name := obj.Name
	if obj.ClassName != "" {
		name = local.Sprintf("%s (%s)", obj.Name, obj.ClassName)
	}
	t := &ObjectTrack{shared: s, object: obj}
	t.Init(timing.NewBaseTrack(id, name, Kind), t)
	return t
}

func (t *ObjectTrack) Object() analysis.GameplayObject { return t.object }

func (t *ObjectTrack) BuildDrawState(b *timing.DrawStateBuilder, ctx *timing.UpdateContext) {
	p, release, ok := ctx.Providers()
	defer release()
	if !ok || p.Gameplay == nil {
		return
	}
	vp := b.Viewport()
	t.width = vp.DurationForDX(instantWidth)
	// Events starting just before the viewport still reach into it.
	p.Gameplay.EnumerateObjectEvents(t.object.ID, vp.StartTime()-t.width, vp.EndTime(), func(ev *analysis.ObjectEvent) bool {
		b.AddEvent(ev.Time, ev.Time+t.width, 0, ev.Name, 0, color.ForName(ev.Name))
		return true
	})
}

func (t *ObjectTrack) search(s timing.EventSearch[*analysis.ObjectEvent]) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.Gameplay == nil {
		return container.None[timing.TimingEvent]()
	}
	s.Procedure = func(ctx *timing.SearchContext[*analysis.ObjectEvent]) {
		p.Gameplay.EnumerateObjectEvents(t.object.ID, ctx.StartTime()-t.width, ctx.EndTime(), func(ev *analysis.ObjectEvent) bool {
			ctx.Check(ev.Time, ev.Time+t.width, 0, ev)
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
		Payload:   timing.ObjectEventPayload{ObjectID: t.object.ID, Name: m.Payload.Name},
	})
}

func (t *ObjectTrack) SearchEvent(params timing.SearchParameters) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*analysis.ObjectEvent]{Params: params})
}

// FindObjectEvent finds the event at exactly time.
func (t *ObjectTrack) FindObjectEvent(time float64) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*analysis.ObjectEvent]{
		Params: timing.SearchParameters{
			StartTime: time,
			EndTime:   time,
			Flags:     timing.SearchStopAtFirstMatch,
		},
		PayloadFilter: func(start, _ float64, _ int, _ *analysis.ObjectEvent) bool {
			return start == time
		},
	})
}

func (t *ObjectTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	op, ok := ev.Payload.(timing.ObjectEventPayload)
	if !ok {
		return
	}
	tt.SetTitle(op.Name)
	tt.Add("Object", t.object.Name)
	if t.object.ClassName != "" {
		tt.Add("Class", t.object.ClassName)
	}
	tt.AddTime("Time", ev.StartTime)
}

func (t *ObjectTrack) BuildContextMenu(m *timing.Menu) {
	s := t.shared
	m.BeginSection("Gameplay")
	for _, class := range container.SortedSet(s.classes) {
		if class == "" {
			continue
		}
		m.AddItem(timing.MenuItem{
			Label:     local.Sprintf("Show %s Objects", class),
			Tooltip:   local.Sprintf("Show or hide the tracks of all %s objects.", class),
			IsChecked: func() bool { return s.IsClassVisible(class) },
			Execute:   func() { s.SetClassVisible(class, !s.IsClassVisible(class)) },
		})
	}
}
