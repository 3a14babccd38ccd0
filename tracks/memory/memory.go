// Package memory graphs LLM memory tags, one graph track per memory tracker.
package memory

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

const Kind timing.TrackKind = "memory"

// Memory graphs sit below the timing tracks but above file activity.
const baseOrder = 1000

// SharedState creates a graph track for every memory tracker and tells them about new tags.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	tracks       []*MemoryTrack
	serial       uint64
	sampleSerial uint64
	// duration is the session duration the series were last filled for. The last sample of a series ends there.
	duration float64
	// hidden holds the tags the user hid. It outlives sessions.
	hidden   container.Set[int64]
	autoZoom bool
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	return &SharedState{hidden: container.Set[int64]{}, autoZoom: true}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	s.tracks = nil
	s.serial = 0
	s.sampleSerial = 0
	s.duration = 0
}

func (s *SharedState) OnEndSession(v *timing.View) {
	tracks.RemoveTracks(v, s.tracks...)
	s.tracks = nil
	s.session = nil
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.Memory == nil {
		return
	}
	if serial := p.Memory.TagSerial(); serial != s.serial {
		s.serial = serial
		for _, tr := range p.Memory.Trackers() {
			if _, ok := s.Track(tr.ID); ok {
				continue
			}
			t := newMemoryTrack(s, v.Session.NextTrackID(), tr)
			s.tracks = append(s.tracks, t)
			tracks.AddTrack(v, s.logger, t)
		}
		// New tags become series the next time each track fills its series.
		s.setDirty()
	}
	if serial := p.Memory.Serial(); serial != s.sampleSerial || p.DurationSeconds != s.duration {
		s.sampleSerial = serial
		s.duration = p.DurationSeconds
		s.setDirty()
	}
}

func (s *SharedState) setDirty() {
	for _, t := range s.tracks {
		t.SetDirty()
	}
}

// Track returns the track of the tracker with the given ID.
func (s *SharedState) Track(tracker int) (*MemoryTrack, bool) {
	for _, t := range s.tracks {
		if t.tracker == tracker {
			return t, true
		}
	}
	return nil, false
}

func (s *SharedState) Tracks() []*MemoryTrack { return s.tracks }

func (s *SharedState) IsTagVisible(tag int64) bool { return !s.hidden.Has(tag) }

// SetTagVisible shows or hides the series of tag on all trackers.
func (s *SharedState) SetTagVisible(tag int64, visible bool) {
	if visible {
		s.hidden.Delete(tag)
	} else {
		s.hidden.Add(tag)
	}
	for _, t := range s.tracks {
		for i, st := range t.tags {
			if st == tag {
				t.Series()[i].Visible = visible
				t.SetDirty()
			}
		}
	}
	s.logger.Debug().Int64("tag", tag).Bool("visible", visible).Msg("changed tag visibility")
}

func (s *SharedState) AutoZoom() bool { return s.autoZoom }

// SetAutoZoom turns automatic vertical zooming on or off for all series.
func (s *SharedState) SetAutoZoom(on bool) {
	s.autoZoom = on
	for _, t := range s.tracks {
		for _, series := range t.Series() {
			series.AutoZoom = on
		}
		t.SetDirty()
	}
}

// MemoryTrack graphs the tags of one memory tracker. Series are added as tags are discovered and never removed.
type MemoryTrack struct {
	timing.GraphTrack

	shared  *SharedState
	tracker int
	// tags[i] is the tag shown by series i.
	tags  []int64
	known container.Set[int64]
}

func newMemoryTrack(s *SharedState, id uint64, tr analysis.MemoryTracker) *MemoryTrack {
	t := &MemoryTrack{shared: s, tracker: tr.ID, known: container.Set[int64]{}}
	t.Init(timing.NewBaseTrack(id, "Memory - "+tr.Name, Kind), t)
	t.SetOrder(baseOrder + tr.ID)
	return t
}

func (t *MemoryTrack) Tracker() int { return t.tracker }

// SeriesForTag returns the series showing tag.
func (t *MemoryTrack) SeriesForTag(tag int64) (*timing.GraphSeries, bool) {
	for i, st := range t.tags {
		if st == tag {
			return t.Series()[i], true
		}
	}
	return nil, false
}

func (t *MemoryTrack) addTagSeries(p analysis.MemoryProvider, tag analysis.MemoryTag) {
	s := timing.NewGraphSeries(tag.Name, color.ForIndex(len(t.tags)))
	if parent, ok := p.Tag(tag.Parent); ok {
		s.Description = parent.Name + " / " + tag.Name
	}
	s.Visible = t.shared.IsTagVisible(tag.ID)
	s.AutoZoom = t.shared.autoZoom
	t.AddSeries(s)
	t.tags = append(t.tags, tag.ID)
	t.known.Add(tag.ID)
}

func (t *MemoryTrack) UpdateSeries(g *timing.GraphTrack, ctx *timing.UpdateContext) {
	p, release, ok := ctx.Providers()
	defer release()
	if !ok || p.Memory == nil {
		return
	}
	for _, tag := range p.Memory.Tags() {
		if !t.known.Has(tag.ID) {
			t.addTagSeries(p.Memory, tag)
		}
	}

	vp := ctx.Viewport
	for i, s := range g.Series() {
		s.Events = s.Events[:0]
		if !s.Visible {
			continue
		}
		p.Memory.EnumerateSamples(t.tracker, t.tags[i], vp.StartTime(), vp.EndTime(), func(sample analysis.MemorySample, d float64) bool {
			// The last sample holds until the end of the session.
			if end := p.DurationSeconds; sample.Time+d > end {
				d = max(end-sample.Time, 0)
			}
			s.Events = append(s.Events, timing.GraphEvent{Time: sample.Time, Duration: d, Value: float64(sample.Value)})
			return true
		})
	}
}

func (t *MemoryTrack) GraphEventPayload(series int, ev timing.GraphEvent) timing.EventPayload {
	return timing.MemoryPayload{Tracker: t.tracker, Tag: t.tags[series], Value: int64(ev.Value)}
}

func (t *MemoryTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	mp, ok := ev.Payload.(timing.MemoryPayload)
	if !ok {
		return
	}
	tt.SetTitle(local.Sprintf("LLM tag %d", mp.Tag))
	if t.shared.session != nil {
		p, scope := t.shared.session.Read()
		if p.Memory != nil {
			if tag, ok := p.Memory.Tag(mp.Tag); ok {
				tt.SetTitle(tag.Name)
				if parent, ok := p.Memory.Tag(tag.Parent); ok {
					tt.Add("Parent", parent.Name)
				}
			}
		}
		scope.Close()
	}
	tt.Add("Tracker", t.Name())
	tt.AddBytes("Value", mp.Value)
	tt.AddEventTimes(ev.StartTime, ev.EndTime)
}

func (t *MemoryTrack) BuildContextMenu(m *timing.Menu) {
	s := t.shared
	m.BeginSection("Memory")
	m.AddItem(timing.MenuItem{
		Label:     "Auto Zoom",
		Tooltip:   "Fit the vertical range to the values in view.",
		IsChecked: s.AutoZoom,
		Execute:   func() { s.SetAutoZoom(!s.autoZoom) },
	})
	m.BeginSection("Tags")
	for i, tag := range t.tags {
		name := t.Series()[i].Name
		m.AddItem(timing.MenuItem{
			Label:     "Show " + name,
			Tooltip:   local.Sprintf("Show or hide the %s series on all memory tracks.", name),
			IsChecked: func() bool { return s.IsTagVisible(tag) },
			Execute:   func() { s.SetTagVisible(tag, !s.IsTagVisible(tag)) },
		})
	}
}
