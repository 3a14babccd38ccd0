package timing

import (
	"math"

	"honnef.co/go/stuff/math/mathutil"
)

// Layout holds the vertical metrics shared by all event tracks. Switching between normal and compact mode animates
// the metrics towards their new targets over several frames.
type Layout struct {
	compact bool

	EventH       float32 // height of one event box
	EventDY      float32 // gap between lanes
	TimelineDY   float32 // padding above the first and below the last lane
	MinTimelineH float32 // height of a track without lanes

	target layoutMetrics
	dirty  bool
}

type layoutMetrics struct {
	eventH, eventDY, timelineDY, minTimelineH float32
}

var (
	normalMetrics  = layoutMetrics{eventH: 14, eventDY: 2, timelineDY: 14, minTimelineH: 13}
	compactMetrics = layoutMetrics{eventH: 2, eventDY: 1, timelineDY: 3, minTimelineH: 0}
)

// layoutStep is the fraction of the remaining distance covered per frame while animating.
const layoutStep = 0.2

func NewLayout() *Layout {
	l := &Layout{}
	l.ForceNormalMode()
	return l
}

func (l *Layout) apply(m layoutMetrics) {
	l.EventH, l.EventDY, l.TimelineDY, l.MinTimelineH = m.eventH, m.eventDY, m.timelineDY, m.minTimelineH
}

// ForceNormalMode switches to normal mode without animating.
func (l *Layout) ForceNormalMode() {
	l.compact = false
	l.target = normalMetrics
	l.apply(l.target)
	l.dirty = true
}

// ForceCompactMode switches to compact mode without animating.
func (l *Layout) ForceCompactMode() {
	l.compact = true
	l.target = compactMetrics
	l.apply(l.target)
	l.dirty = true
}

func (l *Layout) IsCompact() bool { return l.compact }

// ToggleCompactMode starts animating towards the other mode.
func (l *Layout) ToggleCompactMode() {
	l.compact = !l.compact
	if l.compact {
		l.target = compactMetrics
	} else {
		l.target = normalMetrics
	}
}

// Update advances the animation by one frame and reports whether any metric changed. The result is also available
// via IsDirty until the next call.
func (l *Layout) Update() bool {
	step := func(v, target float32) float32 {
		if v == target {
			return v
		}
		n := mathutil.Lerp(float64(v), float64(target), layoutStep)
		if math.Abs(n-float64(target)) < 0.1 {
			return target
		}
		return float32(n)
	}
	old := *l
	l.EventH = step(l.EventH, l.target.eventH)
	l.EventDY = step(l.EventDY, l.target.eventDY)
	l.TimelineDY = step(l.TimelineDY, l.target.timelineDY)
	l.MinTimelineH = step(l.MinTimelineH, l.target.minTimelineH)
	l.dirty = old.EventH != l.EventH || old.EventDY != l.EventDY ||
		old.TimelineDY != l.TimelineDY || old.MinTimelineH != l.MinTimelineH
	return l.dirty
}

// IsAnimating reports whether the metrics are still moving towards the current mode's.
func (l *Layout) IsAnimating() bool {
	return l.EventH != l.target.eventH || l.EventDY != l.target.eventDY ||
		l.TimelineDY != l.target.timelineDY || l.MinTimelineH != l.target.minTimelineH
}

// IsDirty reports whether the metrics changed in the current frame.
func (l *Layout) IsDirty() bool { return l.dirty }

func (l *Layout) laneStride() float32 { return l.EventDY + l.EventH }

// LaneY returns the offset of a lane's top edge from the top of its track.
func (l *Layout) LaneY(depth int) float32 {
	return 1 + l.TimelineDY + float32(depth)*l.laneStride()
}

// DepthAt returns the lane at offset y from the top of a track, or -1 above the first lane.
func (l *Layout) DepthAt(y float32) int {
	y -= 1 + l.TimelineDY
	if y < 0 || l.laneStride() <= 0 {
		return -1
	}
	return int(y / l.laneStride())
}

// ComputeTrackHeight returns the height of a track with the given number of lanes.
func (l *Layout) ComputeTrackHeight(lanes int) float32 {
	if lanes <= 0 {
		return l.MinTimelineH
	}
	h := 2*l.TimelineDY + float32(lanes)*l.laneStride() + 1
	return float32(math.Ceil(float64(max(h, l.MinTimelineH))))
}
