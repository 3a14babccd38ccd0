package timing

import (
	"image/color"

	"honnef.co/go/timingview/mem"
)

const (
	// Events narrower than this are coalesced with their neighbours.
	minBoxWidth = 2
	// Boxes narrower than this get no label.
	minTextBoxWidth = 10
	// Horizontal padding between a box's edge and its label.
	textPadding = 2
	// Sub-pixel events closer than this to the current merged box extend it.
	mergeGap = 1
)

var mergedBoxColor = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}

// Box is an event or a run of merged events, in viewport pixels.
type Box struct {
	X, W   float32
	Depth  int
	Color  color.NRGBA
	TypeID uint32
}

// X2 is the box's right edge.
func (b Box) X2() float32 { return b.X + b.W }

// Text is a label positioned inside a box.
type Text struct {
	X     float32
	W     float32 // available width
	Depth int
	Text  string
	Color color.NRGBA
}

// DrawState is the cached, drawable result of one rebuild. Boxes and texts are stored in per-depth contiguous runs.
type DrawState struct {
	Boxes       []Box
	MergedBoxes []Box
	Texts       []Text
	// MaxDepth is the largest depth of any visible event, or -1.
	MaxDepth        int
	NumEvents       int
	NumMergedEvents int

	depthStart []int
}

// NumLanes is the number of lanes needed to display the state.
func (ds *DrawState) NumLanes() int { return ds.MaxDepth + 1 }

// BoxesAtDepth returns the boxes drawn at depth, ordered by position.
func (ds *DrawState) BoxesAtDepth(depth int) []Box {
	if depth < 0 || depth+1 >= len(ds.depthStart) {
		return nil
	}
	return ds.Boxes[ds.depthStart[depth]:ds.depthStart[depth+1]]
}

func (ds *DrawState) Reset() {
	ds.Boxes = ds.Boxes[:0]
	ds.MergedBoxes = ds.MergedBoxes[:0]
	ds.Texts = ds.Texts[:0]
	ds.depthStart = ds.depthStart[:0]
	ds.MaxDepth = -1
	ds.NumEvents = 0
	ds.NumMergedEvents = 0
}

// EventPredicate selects the events that go into a filtered draw state.
type EventPredicate func(start, end float64, depth int, name string, typeID uint32) bool

type depthRun struct {
	boxes  []Box
	merged []Box
	texts  []Text

	pending      Box
	pendingCount int
}

func (run *depthRun) flushPending() {
	if run.pendingCount == 0 {
		return
	}
	if run.pendingCount > 1 {
		run.pending.Color = mergedBoxColor
	}
	run.merged = append(run.merged, run.pending)
	run.pendingCount = 0
}

func (run *depthRun) reset() {
	run.boxes = run.boxes[:0]
	run.merged = run.merged[:0]
	run.texts = run.texts[:0]
	run.pendingCount = 0
}

// DrawStateBuilder turns a stream of events into a DrawState. Events must be added in start order per depth; the
// order across depths does not matter.
type DrawStateBuilder struct {
	vp     *Viewport
	state  *DrawState
	filter EventPredicate
	runs   []depthRun
	used   int
}

// Begin prepares the builder to write into state, which gets reset.
func (b *DrawStateBuilder) Begin(vp *Viewport, state *DrawState, filter EventPredicate) {
	b.vp = vp
	b.state = state
	b.filter = filter
	for i := range b.runs[:b.used] {
		b.runs[i].reset()
	}
	b.used = 0
	state.Reset()
}

// Viewport returns the viewport the state is being built for.
func (b *DrawStateBuilder) Viewport() *Viewport { return b.vp }

// IsFiltered reports whether the builder drops events that fail a filter.
func (b *DrawStateBuilder) IsFiltered() bool { return b.filter != nil }

// MaxDepth returns the largest depth added so far, or -1.
func (b *DrawStateBuilder) MaxDepth() int { return b.state.MaxDepth }

// AddEvent adds one event. Events that don't overlap the viewport are ignored, and an end of +Inf is treated as the
// end of the session.
func (b *DrawStateBuilder) AddEvent(start, end float64, depth int, name string, typeID uint32, c color.NRGBA) {
	if depth < 0 {
		panic("negative depth")
	}
	vp := b.vp
	end = vp.RestrictEndTime(end)
	if !(end > vp.StartTime() && start < vp.EndTime()) {
		return
	}
	if depth > b.state.MaxDepth {
		b.state.MaxDepth = depth
	}
	if b.filter != nil && !b.filter(start, end, depth, name, typeID) {
		return
	}

	if depth >= len(b.runs) {
		b.runs = mem.EnsureLen(b.runs, depth+1)
	}
	for i := b.used; i <= depth; i++ {
		b.runs[i].reset()
	}
	b.used = max(b.used, depth+1)
	run := &b.runs[depth]
	b.state.NumEvents++

	x1 := vp.TimeToPixelRounded(start)
	x2 := vp.TimeToPixelRounded(end)
	w := x2 - x1

	if w < minBoxWidth {
		b.state.NumMergedEvents++
		if run.pendingCount > 0 && x1 <= run.pending.X2()+mergeGap {
			run.pending.W = max(run.pending.W, x2-run.pending.X)
			run.pendingCount++
			return
		}
		run.flushPending()
		run.pending = Box{X: x1, W: max(w, 1), Depth: depth, Color: c, TypeID: typeID}
		run.pendingCount = 1
		return
	}

	run.flushPending()
	run.boxes = append(run.boxes, Box{X: x1, W: w, Depth: depth, Color: c, TypeID: typeID})
	if name != "" && w > minTextBoxWidth {
		run.texts = append(run.texts, Text{
			X:     max(x1, 0) + textPadding,
			W:     min(x2, vp.Width()) - max(x1, 0) - 2*textPadding,
			Depth: depth,
			Text:  name,
			Color: textColorFor(c),
		})
	}
}

// Flush finishes the state. The builder may be reused with Begin afterwards.
func (b *DrawStateBuilder) Flush() *DrawState {
	ds := b.state
	for i := range b.runs[:b.used] {
		run := &b.runs[i]
		run.flushPending()
		ds.depthStart = append(ds.depthStart, len(ds.Boxes))
		ds.Boxes = append(ds.Boxes, run.boxes...)
		ds.MergedBoxes = append(ds.MergedBoxes, run.merged...)
		ds.Texts = append(ds.Texts, run.texts...)
	}
	ds.depthStart = append(ds.depthStart, len(ds.Boxes))
	b.state = nil
	return ds
}

// textColorFor picks black or white, whichever is more legible on bg.
func textColorFor(bg color.NRGBA) color.NRGBA {
	lum := 0.299*float32(bg.R) + 0.587*float32(bg.G) + 0.114*float32(bg.B)
	if lum > 140 {
		return color.NRGBA{A: 0xFF}
	}
	return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}
