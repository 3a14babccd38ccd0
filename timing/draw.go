package timing

import (
	"image/color"

	"honnef.co/go/timingview/clip"
	"honnef.co/go/timingview/f32color"

	"gioui.org/f32"
)

// Renderer is the drawing surface a host provides. Coordinates are in pixels relative to the view's top-left
// corner.
type Renderer interface {
	FillRect(r clip.FRect, c color.NRGBA)
	StrokeRect(r clip.FRect, width float32, c color.NRGBA)
	Polyline(pts []f32.Point, width float32, c color.NRGBA)
	// DrawText draws s with its top-left corner at pos, truncated to maxWidth.
	DrawText(pos f32.Point, maxWidth float32, s string, c color.NRGBA)
	TextWidth(s string) float32
	LineHeight() float32
}

var (
	colorBackground        = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	colorTrackHeader       = color.NRGBA{R: 0xDD, G: 0xDD, B: 0xDD, A: 0xFF}
	colorHoveredOutline    = color.NRGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}
	colorSelectedBorder    = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorSelectionInterval = color.NRGBA{R: 0x40, G: 0x80, B: 0xFF, A: 0x30}
)

// drawDrawState paints ds into the track at trackY, with every colour's alpha scaled by opacity.
func drawDrawState(r Renderer, vp *Viewport, l *Layout, trackY float32, ds *DrawState, opacity float32) {
	if ds == nil || opacity <= 0 {
		return
	}
	y0 := vp.ViewportY(trackY)
	laneRect := func(b Box) clip.FRect {
		y := y0 + l.LaneY(b.Depth)
		return clip.FRectXYWH(b.X, y, b.W, l.EventH)
	}
	for _, b := range ds.MergedBoxes {
		r.FillRect(laneRect(b), f32color.MulAlpha(b.Color, opacity))
	}
	for _, b := range ds.Boxes {
		r.FillRect(laneRect(b), f32color.MulAlpha(b.Color, opacity))
	}
	if l.EventH < r.LineHeight() {
		return
	}
	for _, t := range ds.Texts {
		if t.W <= 0 {
			continue
		}
		y := y0 + l.LaneY(t.Depth) + (l.EventH-r.LineHeight())/2
		r.DrawText(f32.Pt(t.X, y), t.W, t.Text, f32color.MulAlpha(t.Color, opacity))
	}
}
