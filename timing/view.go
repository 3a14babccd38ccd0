package timing

import (
	"cmp"
	"math"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/clip"
	"honnef.co/go/timingview/container"

	"golang.org/x/exp/slices"
)

// Extender adds tracks to a view. Each track family has one extender per session, which creates its tracks in Tick
// as it discovers new categories of events.
type Extender interface {
	OnBeginSession(v *View)
	OnEndSession(v *View)
	Tick(v *View, session *analysis.Session)
}

const (
	// hoverWidth is the width, in pixels, of the window searched for hovered events.
	hoverWidth = 2
	// bringIntoViewMargin is the fraction of the viewport kept free around an event scrolled into view.
	bringIntoViewMargin = 0.08
)

// View hosts the tracks of one analysis session, and drives their per-frame lifecycle.
type View struct {
	Viewport *Viewport
	Layout   *Layout
	Session  *SessionContext

	analysis  *analysis.Session
	extenders []Extender
	tracks    []Track
	byID      map[uint64]Track
	sorted    bool
	frame     uint64

	hovered  container.Option[TimingEvent]
	selected container.Option[TimingEvent]
	// selection is a time interval chosen independently of events.
	selection container.Option[Interval]

	filterSerial uint64
	filterChange uint32
}

func NewView(width, height float32, sc *SessionContext) *View {
	return &View{
		Viewport: NewViewport(width, height),
		Layout:   NewLayout(),
		Session:  sc,
		byID:     map[uint64]Track{},
	}
}

// AddExtender registers an extender. Extenders added while a session is active are told about it immediately.
func (v *View) AddExtender(e Extender) {
	v.extenders = append(v.extenders, e)
	if v.analysis != nil {
		e.OnBeginSession(v)
	}
}

// Analysis returns the displayed session, or nil.
func (v *View) Analysis() *analysis.Session { return v.analysis }

// BeginSession starts displaying s. A previously displayed session is ended first.
func (v *View) BeginSession(s *analysis.Session) {
	if v.analysis != nil {
		v.EndSession()
	}
	v.analysis = s
	v.Viewport.Reset()
	v.Session.Logger.Debug().Stringer("session", s.ID).Str("name", s.Name).Msg("beginning session")
	for _, e := range v.extenders {
		e.OnBeginSession(v)
	}
}

// EndSession stops displaying the current session and removes all tracks.
func (v *View) EndSession() {
	if v.analysis == nil {
		return
	}
	for _, e := range v.extenders {
		e.OnEndSession(v)
	}
	v.Session.Logger.Debug().Stringer("session", v.analysis.ID).Int("tracks", len(v.tracks)).Msg("ending session")
	v.analysis = nil
	v.tracks = nil
	clear(v.byID)
	v.hovered = container.None[TimingEvent]()
	v.selected = container.None[TimingEvent]()
	v.selection = container.None[Interval]()
}

func (v *View) AddTrack(t Track) {
	if _, ok := v.byID[t.ID()]; ok {
		panic("track added twice")
	}
	v.tracks = append(v.tracks, t)
	v.byID[t.ID()] = t
	v.sorted = false
}

func (v *View) RemoveTrack(t Track) {
	if _, ok := v.byID[t.ID()]; !ok {
		return
	}
	delete(v.byID, t.ID())
	i := slices.Index(v.tracks, t)
	v.tracks = slices.Delete(v.tracks, i, i+1)
	if ev, ok := v.selected.Get(); ok && ev.Track == t {
		v.selected = container.None[TimingEvent]()
	}
	if ev, ok := v.hovered.Get(); ok && ev.Track == t {
		v.hovered = container.None[TimingEvent]()
	}
}

// InvalidateOrder requests re-sorting the tracks, after a track's order has changed.
func (v *View) InvalidateOrder() { v.sorted = false }

// Tracks returns the tracks in display order. The slice must not be modified.
func (v *View) Tracks() []Track {
	v.sortTracks()
	return v.tracks
}

func (v *View) TrackByID(id uint64) (Track, bool) {
	t, ok := v.byID[id]
	return t, ok
}

func (v *View) sortTracks() {
	if v.sorted {
		return
	}
	slices.SortStableFunc(v.tracks, func(a, b Track) int {
		return cmp.Compare(a.Order(), b.Order())
	})
	v.sorted = true
}

func (v *View) updateContext() *UpdateContext {
	return &UpdateContext{
		Viewport: v.Viewport,
		Layout:   v.Layout,
		Session:  v.Session,
		Analysis: v.analysis,
		Frame:    v.frame,
	}
}

// pollFilter marks all tracks dirty when the active filter was replaced or changed in place.
func (v *View) pollFilter() {
	fs := v.Session.Filters
	var change uint32
	if f := fs.Active(); f != nil {
		change = f.ChangeNumber()
	}
	if fs.Serial() == v.filterSerial && change == v.filterChange {
		return
	}
	v.filterSerial, v.filterChange = fs.Serial(), change
	for _, t := range v.tracks {
		t.SetDirty()
	}
}

// Tick runs one frame's worth of updates.
func (v *View) Tick(width, height float32) {
	vp := v.Viewport
	vp.UpdateSize(width, height)

	if v.analysis != nil {
		for _, e := range v.extenders {
			e.Tick(v, v.analysis)
		}
		vp.SetMaxValidTime(v.analysis.Duration())
	}
	v.sortTracks()

	vp.EnforceHorizontalScrollLimits(v.Session.Settings.ScrollDamping)
	v.Layout.Update()
	v.pollFilter()

	ctx := v.updateContext()
	for _, t := range v.tracks {
		if t.IsVisible() {
			t.PreUpdate(ctx)
		}
	}

	var y float32
	for _, t := range v.tracks {
		if !t.IsVisible() {
			continue
		}
		t.SetPosY(y)
		y += t.Height()
	}
	vp.SetScrollHeight(y)
	vp.EnforceVerticalScrollLimits(v.Session.Settings.ScrollDamping)

	for _, t := range v.tracks {
		if t.IsVisible() {
			t.Update(ctx)
		}
	}

	v.frame++
	vp.ResetDirtyFlags()
}

// Animating reports whether more frames are needed for the view to settle, even without input.
func (v *View) Animating() bool {
	if v.Layout.IsAnimating() {
		return true
	}
	for _, t := range v.tracks {
		if !t.IsVisible() {
			continue
		}
		switch t := t.(type) {
		case interface{ IsAnimating(*Layout) bool }:
			if t.IsAnimating(v.Layout) {
				return true
			}
		case interface{ IsAnimating() bool }:
			if t.IsAnimating() {
				return true
			}
		}
		if t.IsDirty() {
			return true
		}
	}
	lo, hi := v.Viewport.horizontalLimits()
	return v.Viewport.StartTime() < lo || v.Viewport.StartTime() > hi
}

// Draw paints the background, all visible tracks and the hover and selection highlights.
func (v *View) Draw(r Renderer) {
	vp := v.Viewport
	r.FillRect(clip.FRectXYWH(0, 0, vp.Width(), vp.Height()), v.Session.Settings.Background)
	ctx := &DrawContext{Viewport: vp, Layout: v.Layout, Renderer: r, Session: v.Session}
	for _, t := range v.tracks {
		if !t.IsVisible() {
			continue
		}
		y := vp.ViewportY(t.PosY())
		if y+t.Height() < vp.TopOffset() || y > vp.Height() {
			continue
		}
		t.Draw(ctx)
	}

	if sel, ok := v.selection.Get(); ok {
		x1 := vp.TimeToPixelRounded(sel.Start)
		x2 := vp.TimeToPixelRounded(sel.End)
		r.FillRect(clip.FRectXYWH(x1, vp.TopOffset(), x2-x1, vp.Height()-vp.TopOffset()), colorSelectionInterval)
	}
	if ev, ok := v.hovered.Get(); ok {
		r.StrokeRect(v.eventRect(ev), 1, colorHoveredOutline)
	}
	if ev, ok := v.selected.Get(); ok {
		r.StrokeRect(v.eventRect(ev), 2, colorSelectedBorder)
	}
}

// eventRect returns the rectangle an event is drawn in.
func (v *View) eventRect(ev TimingEvent) clip.FRect {
	vp, l := v.Viewport, v.Layout
	x1 := vp.TimeToPixelRounded(ev.StartTime)
	x2 := vp.TimeToPixelRounded(vp.RestrictEndTime(ev.EndTime))
	if x2-x1 < 1 {
		x2 = x1 + 1
	}
	if _, ok := ev.Track.(*GraphTrack); ok {
		y := vp.ViewportY(ev.Track.PosY())
		return clip.FRectXYWH(x1, y, x2-x1, ev.Track.Height())
	}
	y := vp.ViewportY(ev.Track.PosY()) + l.LaneY(ev.Depth)
	return clip.FRectXYWH(x1, y, x2-x1, l.EventH)
}

// TrackAt returns the visible track at y, in viewport coordinates.
func (v *View) TrackAt(y float32) (Track, bool) {
	vp := v.Viewport
	if y < vp.TopOffset() {
		return nil, false
	}
	ty := y - vp.TopOffset() + vp.ScrollPosY()
	for _, t := range v.tracks {
		if t.IsVisible() && ty >= t.PosY() && ty < t.PosY()+t.Height() {
			return t, true
		}
	}
	return nil, false
}

// depthAt returns the depth at y within track t.
func (v *View) depthAt(t Track, y float32) int {
	if _, ok := t.(*GraphTrack); ok {
		return 0
	}
	vp := v.Viewport
	return v.Layout.DepthAt(y - vp.TopOffset() + vp.ScrollPosY() - t.PosY())
}

// HoverAt updates the hovered event to the one under the pixel (x, y).
func (v *View) HoverAt(x, y float32) container.Option[TimingEvent] {
	v.hovered = container.None[TimingEvent]()
	t, ok := v.TrackAt(y)
	if !ok {
		return v.hovered
	}
	depth := v.depthAt(t, y)
	if depth < 0 {
		return v.hovered
	}
	start := v.Viewport.PixelToTime(x)
	end := start + v.Viewport.DurationForDX(hoverWidth)
	v.hovered = t.SearchEvent(SearchParameters{
		StartTime: start,
		EndTime:   end,
		Flags:     SearchStopAtFirstMatch,
		EventFilter: func(evStart, evEnd float64, evDepth int) bool {
			return evDepth == depth && evEnd >= start && evStart <= end
		},
	})
	return v.hovered
}

func (v *View) Hovered() container.Option[TimingEvent]  { return v.hovered }
func (v *View) Selected() container.Option[TimingEvent] { return v.selected }

// Tooltip describes the hovered event.
func (v *View) Tooltip() (*Tooltip, bool) {
	ev, ok := v.hovered.Get()
	if !ok {
		return nil, false
	}
	var tt Tooltip
	ev.Track.InitTooltip(&tt, ev)
	return &tt, true
}

// ContextMenu builds the context menu of the track at y.
func (v *View) ContextMenu(y float32) (*Menu, bool) {
	t, ok := v.TrackAt(y)
	if !ok {
		return nil, false
	}
	var m Menu
	t.BuildContextMenu(&m)
	return &m, true
}

func (v *View) Select(ev container.Option[TimingEvent]) {
	v.selected = ev
	if ev, ok := ev.Get(); ok {
		v.BringIntoView(ev.StartTime, ev.EndTime)
		v.bringTrackIntoView(ev.Track)
	}
}

func (v *View) SelectHovered() { v.Select(v.hovered) }

// navigate searches the selected event's track and selects the result.
func (v *View) navigate(params func(sel TimingEvent) (SearchParameters, bool)) bool {
	sel, ok := v.selected.Get()
	if !ok {
		return false
	}
	p, ok := params(sel)
	if !ok {
		return false
	}
	found := sel.Track.SearchEvent(p)
	if !found.IsSome() {
		return false
	}
	v.Select(found)
	return true
}

// SelectLeft selects the closest event on the same lane that ends before the selected one starts.
func (v *View) SelectLeft() bool {
	return v.navigate(func(sel TimingEvent) (SearchParameters, bool) {
		return SearchParameters{
			StartTime: math.Inf(-1),
			EndTime:   sel.StartTime,
			EventFilter: func(start, end float64, depth int) bool {
				return depth == sel.Depth && end <= sel.StartTime && start < sel.StartTime
			},
		}, true
	})
}

// SelectRight selects the first event on the same lane that starts after the selected one ends.
func (v *View) SelectRight() bool {
	return v.navigate(func(sel TimingEvent) (SearchParameters, bool) {
		end := v.Viewport.RestrictEndTime(sel.EndTime)
		return SearchParameters{
			StartTime: end,
			EndTime:   math.Inf(1),
			Flags:     SearchStopAtFirstMatch,
			EventFilter: func(start, _ float64, depth int) bool {
				return depth == sel.Depth && start >= end
			},
		}, true
	})
}

// SelectUp selects the longest event on the lane above that overlaps the selected one.
func (v *View) SelectUp() bool {
	return v.navigate(func(sel TimingEvent) (SearchParameters, bool) {
		if sel.Depth == 0 {
			return SearchParameters{}, false
		}
		return v.overlapping(sel, sel.Depth-1), true
	})
}

// SelectDown selects the longest event on the lane below that overlaps the selected one.
func (v *View) SelectDown() bool {
	return v.navigate(func(sel TimingEvent) (SearchParameters, bool) {
		return v.overlapping(sel, sel.Depth+1), true
	})
}

func (v *View) overlapping(sel TimingEvent, depth int) SearchParameters {
	selEnd := v.Viewport.RestrictEndTime(sel.EndTime)
	return SearchParameters{
		StartTime: sel.StartTime,
		EndTime:   selEnd,
		Flags:     SearchLargestEvent,
		EventFilter: func(start, end float64, d int) bool {
			return d == depth && start < selEnd && end > sel.StartTime
		},
	}
}

// BringIntoView scrolls horizontally so that [start, end] is visible, keeping a margin to the viewport's edges.
// Intervals that don't fit are aligned to their start.
func (v *View) BringIntoView(start, end float64) {
	vp := v.Viewport
	end = vp.RestrictEndTime(end)
	margin := bringIntoViewMargin * vp.Duration()
	switch {
	case end-start > vp.Duration()-2*margin:
		if start < vp.StartTime() || start > vp.EndTime()-margin {
			vp.ScrollAtTime(start - margin)
		}
	case start < vp.StartTime()+margin:
		vp.ScrollAtTime(start - margin)
	case end > vp.EndTime()-margin:
		vp.ScrollAtTime(end + margin - vp.Duration())
	}
}

func (v *View) bringTrackIntoView(t Track) {
	vp := v.Viewport
	visible := vp.Height() - vp.TopOffset()
	switch {
	case t.PosY() < vp.ScrollPosY():
		vp.SetScrollPosY(t.PosY())
	case t.PosY()+t.Height() > vp.ScrollPosY()+visible:
		vp.SetScrollPosY(t.PosY() + t.Height() - visible)
	}
}

// SelectTimeInterval selects [start, start+duration] independently of any event.
func (v *View) SelectTimeInterval(start, duration float64) {
	if !(duration > 0) {
		v.selection = container.None[Interval]()
		return
	}
	v.selection = container.Some(Interval{Start: start, End: start + duration})
}

func (v *View) TimeSelection() container.Option[Interval] { return v.selection }

// FrameSelection zooms onto the selected event or, without one, the selected time interval.
func (v *View) FrameSelection() bool {
	var iv Interval
	if ev, ok := v.selected.Get(); ok {
		iv = Interval{Start: ev.StartTime, End: v.Viewport.RestrictEndTime(ev.EndTime)}
	} else if sel, ok := v.selection.Get(); ok {
		iv = sel
	} else {
		return false
	}
	d := iv.End - iv.Start
	if !(d > 0) {
		return v.Viewport.CenterOnTimeInterval(iv.Start, 0)
	}
	margin := d * bringIntoViewMargin
	return v.Viewport.ZoomOnTimeInterval(iv.Start-margin, d+2*margin)
}

// ScrollBy moves the viewport by dx and dy pixels.
func (v *View) ScrollBy(dx, dy float32) {
	vp := v.Viewport
	if dx != 0 {
		vp.ScrollAtTime(vp.StartTime() + vp.DurationForDX(dx))
	}
	if dy != 0 {
		vp.SetScrollPosY(vp.ScrollPosY() + dy)
	}
}

// Pan drags the content by dx and dy pixels.
func (v *View) Pan(dx, dy float32) { v.ScrollBy(-dx, -dy) }

// ZoomAt zooms by wheel ticks around the pixel x.
func (v *View) ZoomAt(ticks float64, x float32) bool {
	return v.Viewport.RelativeZoomWithFixedX(ticks, x)
}
