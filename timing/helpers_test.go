package timing

import (
	"image/color"

	"honnef.co/go/timingview/clip"
	"honnef.co/go/timingview/container"

	"gioui.org/f32"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type testEvent struct {
	start, end float64
	depth      int
	name       string
	typeID     uint32
}

var testColor = color.NRGBA{R: 0xCC, G: 0x44, B: 0x22, A: 0xFF}

// testTrack shows a fixed list of events, which must be sorted by start time.
type testTrack struct {
	TimingEventsTrack
	events []testEvent
	// onBuild, if set, runs at the start of every build.
	onBuild func(b *DrawStateBuilder)
}

func newTestTrack(sc *SessionContext, events ...testEvent) *testTrack {
	t := &testTrack{events: events}
	t.Init(NewBaseTrack(sc.NextTrackID(), "test", "test"), t)
	return t
}

func (t *testTrack) BuildDrawState(b *DrawStateBuilder, ctx *UpdateContext) {
	if t.onBuild != nil {
		t.onBuild(b)
	}
	for _, ev := range t.events {
		b.AddEvent(ev.start, ev.end, ev.depth, ev.name, ev.typeID, testColor)
	}
}

func (t *testTrack) SearchEvent(params SearchParameters) container.Option[TimingEvent] {
	search := EventSearch[int]{
		Params: params,
		Procedure: func(ctx *SearchContext[int]) {
			for i, ev := range t.events {
				if ev.end < ctx.StartTime() || ev.start > ctx.EndTime() {
					continue
				}
				ctx.Check(ev.start, ev.end, ev.depth, i)
			}
		},
	}
	m, ok := search.Run()
	if !ok {
		return container.None[TimingEvent]()
	}
	return container.Some(TimingEvent{Track: t, StartTime: m.StartTime, EndTime: m.EndTime, Depth: m.Depth})
}

func newTestSession() (*SessionContext, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewSessionContext(zerolog.Nop(), clock), clock
}

// newTestUpdateContext returns a context whose 1000px wide viewport shows [0, 0.05].
func newTestUpdateContext(sc *SessionContext) *UpdateContext {
	vp := NewViewport(1000, 500)
	vp.ZoomOnTimeInterval(0, 0.05)
	vp.SetMaxValidTime(10)
	vp.ResetDirtyFlags()
	return &UpdateContext{Viewport: vp, Layout: NewLayout(), Session: sc}
}

type filledRect struct {
	r clip.FRect
	c color.NRGBA
}

type recordingRenderer struct {
	fills     []filledRect
	strokes   []filledRect
	texts     []string
	polylines int
}

func (r *recordingRenderer) FillRect(rect clip.FRect, c color.NRGBA) {
	r.fills = append(r.fills, filledRect{rect, c})
}

func (r *recordingRenderer) StrokeRect(rect clip.FRect, _ float32, c color.NRGBA) {
	r.strokes = append(r.strokes, filledRect{rect, c})
}

func (r *recordingRenderer) Polyline([]f32.Point, float32, color.NRGBA) { r.polylines++ }

func (r *recordingRenderer) DrawText(_ f32.Point, _ float32, s string, _ color.NRGBA) {
	r.texts = append(r.texts, s)
}

func (r *recordingRenderer) TextWidth(s string) float32 { return float32(7 * len(s)) }
func (r *recordingRenderer) LineHeight() float32        { return 13 }
