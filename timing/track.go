package timing

import (
	"math"
	"time"

	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/mem"
	"honnef.co/go/timingview/metrics"

	"gioui.org/f32"
	"github.com/prometheus/client_golang/prometheus"
)

// TrackKind names a family of tracks, such as frames or file activity.
type TrackKind string

// Track is one horizontal row of the view.
type Track interface {
	ID() uint64
	Name() string
	Kind() TrackKind
	Order() int
	SetOrder(order int)
	IsVisible() bool
	SetVisible(visible bool)
	// PosY is the track's offset from the top of the scrollable area.
	PosY() float32
	SetPosY(y float32)
	Height() float32
	IsDirty() bool
	// SetDirty requests a rebuild in the next frame.
	SetDirty()

	// PreUpdate brings the track's cached state up to date. It runs once per frame, before Update.
	PreUpdate(ctx *UpdateContext)
	// Update advances animations. It runs once per frame, after all tracks have pre-updated.
	Update(ctx *UpdateContext)
	Draw(ctx *DrawContext)

	// SearchEvent finds an event using the track's own storage.
	SearchEvent(params SearchParameters) container.Option[TimingEvent]
	InitTooltip(tt *Tooltip, ev TimingEvent)
	BuildContextMenu(m *Menu)
}

// BaseTrack implements the bookkeeping part of Track. It is meant to be embedded.
type BaseTrack struct {
	id     uint64
	name   string
	kind   TrackKind
	order  int
	hidden bool
	posY   float32
	height float32
	dirty  bool
}

func NewBaseTrack(id uint64, name string, kind TrackKind) BaseTrack {
	return BaseTrack{id: id, name: name, kind: kind, dirty: true}
}

func (t *BaseTrack) ID() uint64                        { return t.id }
func (t *BaseTrack) Name() string                      { return t.name }
func (t *BaseTrack) SetName(name string)               { t.name = name }
func (t *BaseTrack) Kind() TrackKind                   { return t.kind }
func (t *BaseTrack) Order() int                        { return t.order }
func (t *BaseTrack) SetOrder(order int)                { t.order = order }
func (t *BaseTrack) IsVisible() bool                   { return !t.hidden }
func (t *BaseTrack) PosY() float32                     { return t.posY }
func (t *BaseTrack) SetPosY(y float32)                 { t.posY = y }
func (t *BaseTrack) Height() float32                   { return t.height }
func (t *BaseTrack) SetHeight(h float32)               { t.height = h }
func (t *BaseTrack) IsDirty() bool                     { return t.dirty }
func (t *BaseTrack) SetDirty()                         { t.dirty = true }
func (t *BaseTrack) ClearDirty()                       { t.dirty = false }
func (t *BaseTrack) Update(*UpdateContext)             {}
func (t *BaseTrack) BuildContextMenu(*Menu)            {}
func (t *BaseTrack) InitTooltip(*Tooltip, TimingEvent) {}

// SetVisible shows or hides the track. Hidden tracks aren't updated, so a track that becomes visible again needs
// a rebuild.
func (t *BaseTrack) SetVisible(visible bool) {
	if visible && t.hidden {
		t.dirty = true
	}
	t.hidden = !visible
}

// drawHeader draws the track's name in its top-left corner.
func (t *BaseTrack) drawHeader(ctx *DrawContext) {
	if t.name == "" || ctx.Layout.TimelineDY < ctx.Renderer.LineHeight() {
		return
	}
	pos := ctx.Viewport.ViewportY(t.posY)
	ctx.Renderer.DrawText(f32.Pt(4, pos), ctx.Viewport.Width()-8, t.name, colorTrackHeader)
}

// EventSource produces a track's events for the current viewport.
type EventSource interface {
	// BuildDrawState calls b.AddEvent for every event overlapping the viewport. Events of one depth must be added
	// in order of their start times. A source whose data is unavailable adds nothing.
	BuildDrawState(b *DrawStateBuilder, ctx *UpdateContext)
}

const (
	// filteredOpacityStep is how much a filtered draw state fades in per frame.
	filteredOpacityStep = 0.05
	// contextOpacity is the opacity of the unfiltered events drawn behind a filtered draw state.
	contextOpacity = 0.1
)

type filteredDrawState struct {
	state  *DrawState
	filter Filter
	change uint32
	// lastBuild is how long the previous rebuild took.
	lastBuild time.Duration
	// wait counts the frames the viewport still has to stay put before a deferred rebuild runs.
	wait    int
	opacity float32

	vpStart, vpScale float64
}

// TimingEventsTrack caches the drawable form of an EventSource's events, and rebuilds it when the viewport or the
// data changes. Concrete tracks embed it and pass themselves as the source.
type TimingEventsTrack struct {
	BaseTrack

	source   EventSource
	state    *DrawState
	filtered filteredDrawState
	builder  DrawStateBuilder
	states   mem.AllocationCache[DrawState]
	numLanes int

	rebuilds         int
	filteredRebuilds int
}

// Init sets up the track. It must be called before the track is used.
func (t *TimingEventsTrack) Init(base BaseTrack, source EventSource) {
	t.BaseTrack = base
	t.source = source
	t.state = t.newState()
}

func (t *TimingEventsTrack) newState() *DrawState {
	ds := t.states.Get()
	ds.Reset()
	return ds
}

func (t *TimingEventsTrack) recycle(ds *DrawState) {
	if ds != nil {
		t.states.Put(ds)
	}
}

// DrawState returns the current unfiltered draw state.
func (t *TimingEventsTrack) DrawState() *DrawState { return t.state }

// FilteredDrawState returns the current filtered draw state, or nil if no filter applies.
func (t *TimingEventsTrack) FilteredDrawState() *DrawState { return t.filtered.state }

// FilteredOpacity is the current opacity of the filtered draw state.
func (t *TimingEventsTrack) FilteredOpacity() float32 { return t.filtered.opacity }

// RebuildCount returns how often the unfiltered draw state has been rebuilt.
func (t *TimingEventsTrack) RebuildCount() int { return t.rebuilds }

// FilteredRebuildCount returns how often the filtered draw state has been rebuilt.
func (t *TimingEventsTrack) FilteredRebuildCount() int { return t.filteredRebuilds }

func (t *TimingEventsTrack) NumLanes() int { return t.numLanes }

func (t *TimingEventsTrack) PreUpdate(ctx *UpdateContext) {
	if t.IsDirty() || ctx.Viewport.IsHorizontalDirty() {
		// The source may mark the track dirty again while building; that request must survive.
		t.ClearDirty()
		t.rebuild(ctx)
		t.updateFiltered(ctx)
	}
	t.numLanes = t.state.NumLanes()
	t.updateHeight(ctx.Layout)
}

func (t *TimingEventsTrack) build(ctx *UpdateContext, filter EventPredicate) (*DrawState, time.Duration) {
	kind := string(t.Kind())
	which := metrics.PrimaryDrawState
	if filter != nil {
		which = metrics.FilteredDrawState
	}
	labels := prometheus.Labels{metrics.TrackKindLabel: kind, metrics.DrawStateLabel: which}

	clock := ctx.Session.Clock
	start := clock.Now()
	ds := t.newState()
	t.builder.Begin(ctx.Viewport, ds, filter)
	t.source.BuildDrawState(&t.builder, ctx)
	t.builder.Flush()
	d := clock.Since(start)

	metrics.DrawStateRebuilds.With(labels).Inc()
	metrics.DrawStateRebuildDurationUsec.With(labels).Observe(float64(d.Microseconds()))
	metrics.DrawStateEvents.With(prometheus.Labels{metrics.TrackKindLabel: kind}).Observe(float64(ds.NumEvents))
	return ds, d
}

func (t *TimingEventsTrack) rebuild(ctx *UpdateContext) {
	ds, _ := t.build(ctx, nil)
	t.recycle(t.state)
	t.state = ds
	t.rebuilds++
}

func (t *TimingEventsTrack) dropFiltered() {
	t.recycle(t.filtered.state)
	t.filtered = filteredDrawState{}
}

func (t *TimingEventsTrack) updateFiltered(ctx *UpdateContext) {
	f := ctx.Filters().FilterFor(t)
	if f == nil {
		if t.filtered.filter != nil {
			t.dropFiltered()
		}
		return
	}

	fs := &t.filtered
	vp := ctx.Viewport
	moved := vp.StartTime() != fs.vpStart || vp.ScaleX() != fs.vpScale
	fs.vpStart, fs.vpScale = vp.StartTime(), vp.ScaleX()

	kind := string(t.Kind())
	var reason string
	switch {
	case f != fs.filter || fs.state == nil:
		reason = "filter_changed"
		fs.opacity = 0
	case f.ChangeNumber() != fs.change:
		reason = "filter_changed"
	case fs.lastBuild < ctx.Session.Settings.FilterRebuildBudget:
		reason = "fast"
	case moved:
		// Expensive rebuilds wait until the user stops panning or zooming.
		fs.wait = 1
		t.SetDirty()
		metrics.FilteredRebuildsDeferred.With(prometheus.Labels{metrics.TrackKindLabel: kind}).Inc()
		return
	case fs.wait > 0:
		fs.wait--
		t.SetDirty()
		metrics.FilteredRebuildsDeferred.With(prometheus.Labels{metrics.TrackKindLabel: kind}).Inc()
		return
	default:
		reason = "settled"
	}

	ds, d := t.build(ctx, f.FilterEvent)
	t.recycle(fs.state)
	fs.state = ds
	fs.filter = f
	fs.change = f.ChangeNumber()
	fs.lastBuild = d
	fs.wait = 0
	t.filteredRebuilds++
	metrics.FilteredRebuildReasons.With(prometheus.Labels{
		metrics.TrackKindLabel:     kind,
		metrics.RebuildReasonLabel: reason,
	}).Inc()
	ctx.Session.Logger.Debug().
		Uint64("track", t.ID()).
		Str("reason", reason).
		Dur("took", d).
		Int("events", ds.NumEvents).
		Msg("rebuilt filtered draw state")
}

// updateHeight eases the track's height towards the height its lanes need. Growing rounds up and shrinking rounds
// down, so that the animation always terminates on a whole pixel. New tracks and layout changes snap.
func (t *TimingEventsTrack) updateHeight(l *Layout) {
	target := l.ComputeTrackHeight(t.numLanes)
	h := t.Height()
	switch {
	case l.IsDirty() || h == 0 || h == target:
		h = target
	case h < target:
		h = float32(math.Ceil(float64(0.9*h + 0.1*target)))
	default:
		h = float32(math.Floor(float64(0.9*h + 0.1*target)))
	}
	t.SetHeight(h)
}

// Update advances the filter fade.
func (t *TimingEventsTrack) Update(ctx *UpdateContext) {
	if t.filtered.state != nil && t.filtered.opacity < 1 {
		t.filtered.opacity = min(t.filtered.opacity+filteredOpacityStep, 1)
	}
}

// IsAnimating reports whether the track needs more frames to settle.
func (t *TimingEventsTrack) IsAnimating(l *Layout) bool {
	return t.Height() != l.ComputeTrackHeight(t.numLanes) ||
		(t.filtered.state != nil && t.filtered.opacity < 1)
}

func (t *TimingEventsTrack) Draw(ctx *DrawContext) {
	vp, l, r := ctx.Viewport, ctx.Layout, ctx.Renderer
	if fs := &t.filtered; fs.state != nil {
		drawDrawState(r, vp, l, t.PosY(), t.state, contextOpacity)
		drawDrawState(r, vp, l, t.PosY(), fs.state, fs.opacity)
	} else {
		drawDrawState(r, vp, l, t.PosY(), t.state, 1)
	}
	t.drawHeader(ctx)
}

// SearchEvent finds nothing. Concrete tracks override it to search their data.
func (t *TimingEventsTrack) SearchEvent(params SearchParameters) container.Option[TimingEvent] {
	return container.None[TimingEvent]()
}
