package timing

import (
	"image/color"
	"math"

	"honnef.co/go/timingview/container"

	"gioui.org/f32"
)

// GraphEvent is a value that holds from Time for Duration seconds.
type GraphEvent struct {
	Time     float64
	Duration float64
	Value    float64
}

func (ev GraphEvent) End() float64 { return ev.Time + ev.Duration }

const (
	// autoZoomAlpha is the weight of the target range in each auto-zoom step.
	autoZoomAlpha = 0.5
	// autoZoomEpsilon is the distance, in pixels, below which auto-zoom snaps to its target.
	autoZoomEpsilon = 0.5
)

// GraphSeries is one line of a graph track. Values map to y coordinates via y = BaselineY - value*ScaleY, with y
// relative to the top of the track.
type GraphSeries struct {
	Name        string
	Description string
	Color       color.NRGBA
	BorderColor color.NRGBA
	Visible     bool
	AutoZoom    bool

	BaselineY float64
	ScaleY    float64

	// Events are the series' values in the current viewport, ordered by time.
	Events []GraphEvent
	// Points is the polyline drawn for Events, in viewport coordinates relative to the track.
	Points []f32.Point

	dirty bool
}

func NewGraphSeries(name string, c color.NRGBA) *GraphSeries {
	return &GraphSeries{
		Name:        name,
		Color:       c,
		BorderColor: c,
		Visible:     true,
		AutoZoom:    true,
		ScaleY:      1,
	}
}

func (s *GraphSeries) IsDirty() bool { return s.dirty }
func (s *GraphSeries) SetDirty()     { s.dirty = true }
func (s *GraphSeries) ClearDirty()   { s.dirty = false }

func (s *GraphSeries) ValueForY(y float64) float64 {
	if s.ScaleY == 0 {
		return 0
	}
	return (s.BaselineY - y) / s.ScaleY
}

func (s *GraphSeries) YForValue(v float64) float64 {
	return s.BaselineY - v*s.ScaleY
}

// ComputeBaselineAndScale returns the mapping that puts minValue at bottomY and maxValue at topY. ok is false for an
// empty or inverted range, which has no such mapping.
func (s *GraphSeries) ComputeBaselineAndScale(topY, bottomY, minValue, maxValue float64) (baseline, scale float64, ok bool) {
	if !(maxValue > minValue) || !(bottomY > topY) {
		return s.BaselineY, s.ScaleY, false
	}
	scale = (bottomY - topY) / (maxValue - minValue)
	baseline = bottomY + minValue*scale
	return baseline, scale, true
}

func (s *GraphSeries) fit(topY, bottomY, minValue, maxValue float64) {
	if baseline, scale, ok := s.ComputeBaselineAndScale(topY, bottomY, minValue, maxValue); ok {
		s.BaselineY, s.ScaleY = baseline, scale
	}
}

// UpdateAutoZoom moves the mapping towards showing [minValue, maxValue] between topY and bottomY. When animated, each
// call covers half of the remaining distance and marks the series dirty until it has converged to within half a
// pixel.
//
// A flat series (minValue == maxValue) that is already visible keeps the current mapping. Otherwise the visible range
// is widened just enough to include it.
func (s *GraphSeries) UpdateAutoZoom(topY, bottomY, minValue, maxValue float64, animated bool) {
	if math.IsNaN(minValue) || math.IsNaN(maxValue) || math.IsInf(minValue, 0) || math.IsInf(maxValue, 0) {
		return
	}
	low := s.ValueForY(bottomY)
	high := s.ValueForY(topY)

	if minValue == maxValue {
		v := minValue
		switch {
		case v >= low && v <= high:
		case v < low:
			s.fit(topY, bottomY, v, high)
		default:
			s.fit(topY, bottomY, low, v)
		}
		return
	}

	if !animated {
		s.fit(topY, bottomY, minValue, maxValue)
		return
	}
	newMin := autoZoomAlpha*minValue + (1-autoZoomAlpha)*low
	newMax := autoZoomAlpha*maxValue + (1-autoZoomAlpha)*high
	eps := autoZoomEpsilon / s.ScaleY
	if math.Abs(newMin-minValue) < eps && math.Abs(newMax-maxValue) < eps {
		newMin, newMax = minValue, maxValue
	} else {
		s.dirty = true
	}
	s.fit(topY, bottomY, newMin, newMax)
}

// ValueRange returns the smallest and largest value of the series' events.
func (s *GraphSeries) ValueRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, ev := range s.Events {
		if math.IsNaN(ev.Value) {
			continue
		}
		lo = min(lo, ev.Value)
		hi = max(hi, ev.Value)
	}
	return lo, hi, lo <= hi
}

func (s *GraphSeries) buildPoints(vp *Viewport) {
	s.Points = s.Points[:0]
	for _, ev := range s.Events {
		x1 := vp.TimeToPixelRounded(ev.Time)
		x2 := vp.TimeToPixelRounded(vp.RestrictEndTime(ev.End()))
		y := float32(s.YForValue(ev.Value))
		if n := len(s.Points); n > 0 && s.Points[n-1].X == x1 && s.Points[n-1].Y == y {
			s.Points[n-1].X = x2
			continue
		}
		s.Points = append(s.Points, f32.Pt(x1, y), f32.Pt(x2, y))
	}
}

// GraphSource fills a graph track's series.
type GraphSource interface {
	// UpdateSeries refills the events of the track's series for the current viewport. It may add series.
	UpdateSeries(t *GraphTrack, ctx *UpdateContext)
	// GraphEventPayload describes an event of the series at index series.
	GraphEventPayload(series int, ev GraphEvent) EventPayload
}

// graphPadding keeps lines off the track's edges.
const graphPadding = 4

// GraphTrack draws series of values over time.
type GraphTrack struct {
	BaseTrack

	source   GraphSource
	series   []*GraphSeries
	rebuilds int
}

func (t *GraphTrack) Init(base BaseTrack, source GraphSource) {
	t.BaseTrack = base
	t.source = source
}

// AddSeries adds a series. Sources add series from UpdateSeries; elsewhere, the track has to be marked dirty for the
// series to be filled.
func (t *GraphTrack) AddSeries(s *GraphSeries) int {
	t.series = append(t.series, s)
	return len(t.series) - 1
}

func (t *GraphTrack) Series() []*GraphSeries { return t.series }

func (t *GraphTrack) RebuildCount() int { return t.rebuilds }

func (t *GraphTrack) valueBand() (top, bottom float64) {
	return graphPadding, float64(t.Height()) - graphPadding
}

func (t *GraphTrack) PreUpdate(ctx *UpdateContext) {
	if h := ctx.Session.Settings.GraphHeight; t.Height() != h {
		t.SetHeight(h)
		t.SetDirty()
	}

	animating := false
	for _, s := range t.series {
		if s.IsDirty() {
			animating = true
			s.ClearDirty()
		}
	}
	refill := t.IsDirty() || ctx.Viewport.IsHorizontalDirty()
	if !refill && !animating {
		return
	}
	if refill {
		t.ClearDirty()
		t.source.UpdateSeries(t, ctx)
		t.rebuilds++
	}

	top, bottom := t.valueBand()
	for _, s := range t.series {
		if s.Visible && s.AutoZoom {
			if lo, hi, ok := s.ValueRange(); ok {
				s.UpdateAutoZoom(top, bottom, lo, hi, true)
			}
		}
		s.buildPoints(ctx.Viewport)
	}
}

func (t *GraphTrack) Update(*UpdateContext) {}

// IsAnimating reports whether a series is still zooming.
func (t *GraphTrack) IsAnimating() bool {
	for _, s := range t.series {
		if s.IsDirty() {
			return true
		}
	}
	return false
}

func (t *GraphTrack) Draw(ctx *DrawContext) {
	y0 := ctx.Viewport.ViewportY(t.PosY())
	var pts []f32.Point
	for _, s := range t.series {
		if !s.Visible || len(s.Points) == 0 {
			continue
		}
		pts = pts[:0]
		for _, pt := range s.Points {
			pts = append(pts, f32.Pt(pt.X, pt.Y+y0))
		}
		ctx.Renderer.Polyline(pts, 1, s.Color)
	}
	t.drawHeader(ctx)
}

type graphHit struct {
	series int
	event  GraphEvent
}

// SearchEvent finds series events overlapping the search window. Hidden series are skipped.
func (t *GraphTrack) SearchEvent(params SearchParameters) container.Option[TimingEvent] {
	search := EventSearch[graphHit]{
		Params: params,
		Procedure: func(ctx *SearchContext[graphHit]) {
			for i, s := range t.series {
				if !s.Visible {
					continue
				}
				for _, ev := range s.Events {
					if ev.End() < ctx.StartTime() || ev.Time > ctx.EndTime() {
						continue
					}
					ctx.Check(ev.Time, ev.End(), 0, graphHit{series: i, event: ev})
					if !ctx.ShouldContinue() {
						return
					}
				}
			}
		},
	}
	m, ok := search.Run()
	if !ok {
		return container.None[TimingEvent]()
	}
	return container.Some(TimingEvent{
		Track:     t,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Depth:     0,
		Payload:   t.source.GraphEventPayload(m.Payload.series, m.Payload.event),
	})
}
