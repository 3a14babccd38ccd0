// Package trackstest provides a view harness for testing track families.
package trackstest

import (
	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/timing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	Width  = 1000
	Height = 500
)

// NewView returns a view showing a session backed by p, with ext registered and one frame ticked. The viewport
// shows [start, end].
func NewView(p *analysis.Providers, ext timing.Extender, start, end float64) (*timing.View, *analysis.Session) {
	sc := timing.NewSessionContext(zerolog.Nop(), clockwork.NewFakeClock())
	v := timing.NewView(Width, Height, sc)
	v.AddExtender(ext)
	s := analysis.NewSession("test", p)
	v.BeginSession(s)
	v.Viewport.ZoomOnTimeInterval(start, end-start)
	v.Tick(Width, Height)
	return v, s
}

// Settle ticks the view until it stops animating, for at most n frames. It reports whether the view settled.
func Settle(v *timing.View, n int) bool {
	for range n {
		if !v.Animating() {
			return true
		}
		v.Tick(Width, Height)
	}
	return !v.Animating()
}

// LaneY returns the viewport y coordinate of the middle of t's lane at depth.
func LaneY(v *timing.View, t timing.Track, depth int) float32 {
	l := v.Layout
	return v.Viewport.ViewportY(t.PosY()) + l.LaneY(depth) + l.EventH/2
}

// TracksOfKind returns the view's tracks of one family, in display order.
func TracksOfKind(v *timing.View, kind timing.TrackKind) []timing.Track {
	var out []timing.Track
	for _, t := range v.Tracks() {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}
