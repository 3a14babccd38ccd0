package timing

import (
	"math"
)

// ViewportDirty records which aspects of a viewport changed since the last frame.
type ViewportDirty uint8

const (
	DirtyHorizontal ViewportDirty = 1 << iota
	DirtyVertical
	DirtySize
)

// Viewport maps between time and pixels for the visible part of the timeline. Times are in seconds, positions
// and sizes in pixels.
//
// The end time is derived from start time, scale and width, and is recomputed whenever one of them changes.
type Viewport struct {
	width, height float32

	startTime, endTime float64
	// pixels per second
	scaleX               float64
	minScaleX, maxScaleX float64

	minValidTime, maxValidTime float64

	topOffset    float32
	scrollHeight float32
	scrollPosY   float32

	dirty ViewportDirty
}

const (
	defaultMinScaleX = 1.0 / 1000 // 1px per 1000s
	defaultMaxScaleX = 1e10       // 1px per 0.1ns
)

func NewViewport(width, height float32) *Viewport {
	vp := &Viewport{
		minScaleX:    defaultMinScaleX,
		maxScaleX:    defaultMaxScaleX,
		maxValidTime: 0,
	}
	vp.UpdateSize(width, height)
	vp.scaleX = vp.clampScaleX(float64(max(width, 1)) / 5)
	vp.updateEndTime()
	return vp
}

// Reset returns the viewport to its initial state, keeping its size and scale limits.
func (vp *Viewport) Reset() {
	*vp = Viewport{
		width:     vp.width,
		height:    vp.height,
		minScaleX: vp.minScaleX,
		maxScaleX: vp.maxScaleX,
		topOffset: vp.topOffset,
		dirty:     DirtyHorizontal | DirtyVertical | DirtySize,
	}
	vp.scaleX = vp.clampScaleX(float64(max(vp.width, 1)) / 5)
	vp.updateEndTime()
}

func (vp *Viewport) Width() float32          { return vp.width }
func (vp *Viewport) Height() float32         { return vp.height }
func (vp *Viewport) StartTime() float64      { return vp.startTime }
func (vp *Viewport) EndTime() float64        { return vp.endTime }
func (vp *Viewport) Duration() float64       { return vp.endTime - vp.startTime }
func (vp *Viewport) ScaleX() float64         { return vp.scaleX }
func (vp *Viewport) MinScaleX() float64      { return vp.minScaleX }
func (vp *Viewport) MaxScaleX() float64      { return vp.maxScaleX }
func (vp *Viewport) MinValidTime() float64   { return vp.minValidTime }
func (vp *Viewport) MaxValidTime() float64   { return vp.maxValidTime }
func (vp *Viewport) TopOffset() float32      { return vp.topOffset }
func (vp *Viewport) ScrollHeight() float32   { return vp.scrollHeight }
func (vp *Viewport) ScrollPosY() float32     { return vp.scrollPosY }
func (vp *Viewport) Dirty() ViewportDirty    { return vp.dirty }
func (vp *Viewport) IsHorizontalDirty() bool { return vp.dirty&DirtyHorizontal != 0 }
func (vp *Viewport) IsVerticalDirty() bool   { return vp.dirty&DirtyVertical != 0 }
func (vp *Viewport) IsSizeDirty() bool       { return vp.dirty&DirtySize != 0 }

// ResetDirtyFlags is called once per frame, after all tracks have observed this frame's changes.
func (vp *Viewport) ResetDirtyFlags() { vp.dirty = 0 }

func (vp *Viewport) AddDirtyFlags(f ViewportDirty) { vp.dirty |= f }

func (vp *Viewport) clampScaleX(s float64) float64 {
	return min(max(s, vp.minScaleX), vp.maxScaleX)
}

func (vp *Viewport) updateEndTime() {
	vp.endTime = vp.startTime + float64(vp.width)/vp.scaleX
}

// SetScaleLimits changes the permitted range of ScaleX and clamps the current scale to it.
func (vp *Viewport) SetScaleLimits(minScaleX, maxScaleX float64) bool {
	if !(minScaleX > 0) || !(maxScaleX >= minScaleX) {
		return false
	}
	vp.minScaleX, vp.maxScaleX = minScaleX, maxScaleX
	s := vp.clampScaleX(vp.scaleX)
	if s == vp.scaleX {
		return false
	}
	vp.scaleX = s
	vp.updateEndTime()
	vp.dirty |= DirtyHorizontal
	return true
}

func (vp *Viewport) UpdateSize(width, height float32) bool {
	if width < 0 || height < 0 || (width == vp.width && height == vp.height) {
		return false
	}
	if width != vp.width {
		vp.dirty |= DirtyHorizontal
	}
	if height != vp.height {
		vp.dirty |= DirtyVertical
	}
	vp.dirty |= DirtySize
	vp.width, vp.height = width, height
	if vp.scaleX > 0 {
		vp.updateEndTime()
	}
	return true
}

// SetTopOffset sets the height of the fixed area above the scrollable tracks.
func (vp *Viewport) SetTopOffset(y float32) {
	if y != vp.topOffset {
		vp.topOffset = y
		vp.dirty |= DirtyVertical
	}
}

func (vp *Viewport) SetScrollHeight(h float32) {
	if h != vp.scrollHeight {
		vp.scrollHeight = h
		vp.dirty |= DirtyVertical
	}
}

func (vp *Viewport) SetScrollPosY(y float32) bool {
	if y == vp.scrollPosY || y != y {
		return false
	}
	vp.scrollPosY = y
	vp.dirty |= DirtyVertical
	return true
}

// SetMaxValidTime extends or shrinks the time range that can be scrolled to.
func (vp *Viewport) SetMaxValidTime(t float64) bool {
	if t == vp.maxValidTime || math.IsNaN(t) {
		return false
	}
	vp.maxValidTime = t
	return true
}

func (vp *Viewport) TimeToPixel(t float64) float32 {
	return float32((t - vp.startTime) * vp.scaleX)
}

// TimeToPixelRounded is like TimeToPixel, but snaps to whole pixels. Results are clamped to a range just wider than
// the viewport, so that events far outside of it don't produce huge coordinates.
func (vp *Viewport) TimeToPixelRounded(t float64) float32 {
	x := math.Round((t - vp.startTime) * vp.scaleX)
	x = min(max(x, -2), float64(vp.width)+2)
	return float32(x)
}

func (vp *Viewport) PixelToTime(x float32) float64 {
	return vp.startTime + float64(x)/vp.scaleX
}

func (vp *Viewport) DurationForDX(dx float32) float64 {
	return float64(dx) / vp.scaleX
}

func (vp *Viewport) AlignTimeToPixel(t float64) float64 {
	return math.Round(t*vp.scaleX) / vp.scaleX
}

// ViewportY converts a track position to a y coordinate within the viewport.
func (vp *Viewport) ViewportY(trackY float32) float32 {
	return vp.topOffset + trackY - vp.scrollPosY
}

// RestrictEndTime replaces the end of events that haven't ended yet with the end of the valid time range.
func (vp *Viewport) RestrictEndTime(t float64) float64 {
	if math.IsInf(t, 1) {
		return vp.maxValidTime
	}
	return t
}

// RestrictDuration returns the duration of [start, end], with open ends restricted.
func (vp *Viewport) RestrictDuration(start, end float64) float64 {
	return vp.RestrictEndTime(end) - start
}

// ScrollAtTime moves the viewport so that it starts at t, aligned to a pixel boundary.
func (vp *Viewport) ScrollAtTime(t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	t = vp.AlignTimeToPixel(t)
	if t == vp.startTime {
		return false
	}
	vp.startTime = t
	vp.updateEndTime()
	vp.dirty |= DirtyHorizontal
	return true
}

// ZoomOnTimeInterval fits [t, t+d] into the viewport. If the interval is shorter than the viewport at the
// resulting scale, it is centered.
func (vp *Viewport) ZoomOnTimeInterval(t, d float64) bool {
	if !(d > 0) || vp.width <= 0 || math.IsInf(d, 0) {
		return false
	}
	scale := vp.clampScaleX(float64(vp.width) / d)
	vpDuration := float64(vp.width) / scale
	start := t
	if d < vpDuration {
		start -= (vpDuration - d) / 2
	}
	start = math.Round(start*scale) / scale

	if scale == vp.scaleX && start == vp.startTime {
		return false
	}
	vp.scaleX = scale
	vp.startTime = start
	vp.updateEndTime()
	vp.dirty |= DirtyHorizontal
	return true
}

// CenterOnTimeInterval scrolls so that [t, t+d] is centered, without changing the scale.
func (vp *Viewport) CenterOnTimeInterval(t, d float64) bool {
	if d < 0 || math.IsNaN(d) {
		return false
	}
	return vp.ScrollAtTime(t - (vp.Duration()-d)/2)
}

// ZoomWithFixedX changes the scale while keeping the time under the pixel x in place.
func (vp *Viewport) ZoomWithFixedX(scaleX float64, x float32) bool {
	if !(scaleX > 0) {
		return false
	}
	scaleX = vp.clampScaleX(scaleX)
	if scaleX == vp.scaleX {
		return false
	}
	vp.startTime += float64(x) * (1/vp.scaleX - 1/scaleX)
	vp.scaleX = scaleX
	vp.updateEndTime()
	vp.dirty |= DirtyHorizontal
	return true
}

// RelativeZoomWithFixedX zooms by wheel ticks around x. Positive deltas zoom in by 25% per tick.
func (vp *Viewport) RelativeZoomWithFixedX(delta float64, x float32) bool {
	const zoomStep = 0.25
	var scale float64
	if delta > 0 {
		scale = vp.scaleX * math.Pow(1+zoomStep, delta)
	} else {
		scale = vp.scaleX * math.Pow(1/(1+zoomStep), -delta)
	}
	return vp.ZoomWithFixedX(scale, x)
}

// horizontalLimits returns the range the start time may take. A session shorter than the viewport pins the start
// to the beginning.
func (vp *Viewport) horizontalLimits() (lo, hi float64) {
	lo = vp.minValidTime
	hi = max(lo, vp.maxValidTime-vp.Duration())
	return lo, hi
}

// EnforceHorizontalScrollLimits pulls a start time that has been scrolled past the valid range back towards it.
// u is the fraction of the distance covered per call: 1 snaps, smaller values give an elastic feel over several
// frames. Within one pixel of the limit the start time snaps to it.
func (vp *Viewport) EnforceHorizontalScrollLimits(u float64) bool {
	lo, hi := vp.horizontalLimits()
	start := vp.startTime
	var target float64
	switch {
	case start < lo:
		target = lo
	case start > hi:
		target = hi
	default:
		return false
	}
	u = min(max(u, 0), 1)
	start += u * (target - start)
	if math.Abs(target-start) < 1/vp.scaleX {
		start = target
	}
	if start == vp.startTime {
		return false
	}
	vp.startTime = start
	vp.updateEndTime()
	vp.dirty |= DirtyHorizontal
	return true
}

// verticalScrollMargin is the blank space allowed below the last track.
const verticalScrollMargin = 7

// EnforceVerticalScrollLimits is the vertical counterpart of EnforceHorizontalScrollLimits. It snaps within half a
// pixel of the limit.
func (vp *Viewport) EnforceVerticalScrollLimits(u float64) bool {
	hi := max(0, vp.scrollHeight-vp.height+vp.topOffset+verticalScrollMargin)
	y := vp.scrollPosY
	var target float32
	switch {
	case y < 0:
		target = 0
	case y > hi:
		target = hi
	default:
		return false
	}
	u = min(max(u, 0), 1)
	y += float32(u) * (target - y)
	if d := target - y; d < 0.5 && d > -0.5 {
		y = target
	}
	return vp.SetScrollPosY(y)
}
