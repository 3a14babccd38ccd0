// Package gioui records a view as Gio operations. Boxes of one colour are merged into a single path and painted
// with one operation.
package gioui

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"honnef.co/go/timingview/clip"
	"honnef.co/go/timingview/mem"
	"honnef.co/go/timingview/timing"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/op"
	gioclip "gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/math/fixed"
)

const (
	defaultTextSize = 12
	widthCacheSize  = 4096
	ellipsis        = "…"
)

// fillBatch collects the rectangles of one colour. The path is recorded into its own ops, because a path under
// construction can't share ops with anything else.
type fillBatch struct {
	ops   op.Ops
	batch clip.Batch
	color color.NRGBA
}

// Stats counts the operations of the current frame.
type Stats struct {
	Rects  int
	Paints int
	Texts  int
}

// Renderer records into the ops passed to Begin. Fills are batched per colour until the next operation that isn't a
// fill, and batches are painted in the order their colour was first used.
type Renderer struct {
	shaper   *text.Shaper
	textSize fixed.Int26_6
	font     font.Font

	ops     *op.Ops
	arena   mem.Arena[fillBatch]
	pending map[color.NRGBA]*fillBatch
	order   []*fillBatch
	glyphs  []text.Glyph
	stats   Stats

	widths     *lru.Cache
	lineHeight float32
}

var _ timing.Renderer = (*Renderer)(nil)

func New(shaper *text.Shaper) *Renderer {
	widths, err := lru.New(widthCacheSize)
	if err != nil {
		panic(fmt.Sprintf("creating width cache: %s", err))
	}
	return &Renderer{
		shaper:   shaper,
		textSize: fixed.I(defaultTextSize),
		pending:  map[color.NRGBA]*fillBatch{},
		widths:   widths,
	}
}

// Begin starts recording a frame into ops. Batches of the previous frame are reused, so the ops of the previous
// frame must no longer be in use.
func (r *Renderer) Begin(ops *op.Ops) {
	r.ops = ops
	r.arena.Reset()
	clear(r.pending)
	r.order = r.order[:0]
	r.stats = Stats{}
}

// End paints outstanding batches. The ops passed to Begin are complete afterwards.
func (r *Renderer) End() Stats {
	r.flush()
	return r.stats
}

func (r *Renderer) flush() {
	for _, fb := range r.order {
		if o, ok := fb.batch.Op(); ok {
			paint.FillShape(r.ops, fb.color, o)
			r.stats.Paints++
		}
	}
	clear(r.pending)
	r.order = r.order[:0]
}

func (r *Renderer) FillRect(rect clip.FRect, c color.NRGBA) {
	if rect.Empty() || c.A == 0 {
		return
	}
	fb := r.pending[c]
	if fb == nil {
		fb = r.arena.Grow()
		fb.ops.Reset()
		fb.color = c
		r.pending[c] = fb
		r.order = append(r.order, fb)
	}
	fb.batch.Add(&fb.ops, rect)
	r.stats.Rects++
}

func (r *Renderer) StrokeRect(rect clip.FRect, width float32, c color.NRGBA) {
	if rect.Empty() {
		return
	}
	r.flush()
	paint.FillShape(r.ops, c, clip.RectangularOutline{Rect: rect, Width: width}.Op(r.ops))
	r.stats.Paints++
}

func (r *Renderer) Polyline(pts []f32.Point, width float32, c color.NRGBA) {
	if len(pts) < 2 {
		return
	}
	r.flush()
	var p gioclip.Path
	p.Begin(r.ops)
	p.MoveTo(pts[0])
	for _, pt := range pts[1:] {
		p.LineTo(pt)
	}
	paint.FillShape(r.ops, c, gioclip.Stroke{Path: p.End(), Width: width}.Op())
	r.stats.Paints++
}

func (r *Renderer) layout(s string, maxWidth int) []text.Glyph {
	r.shaper.LayoutString(text.Parameters{
		Font:      r.font,
		PxPerEm:   r.textSize,
		MaxLines:  1,
		MaxWidth:  maxWidth,
		Truncator: ellipsis,
	}, s)
	r.glyphs = r.glyphs[:0]
	for g, ok := r.shaper.NextGlyph(); ok; g, ok = r.shaper.NextGlyph() {
		r.glyphs = append(r.glyphs, g)
	}
	return r.glyphs
}

func (r *Renderer) DrawText(pos f32.Point, maxWidth float32, s string, c color.NRGBA) {
	if maxWidth < 1 || s == "" {
		return
	}
	r.flush()
	glyphs := r.layout(s, int(maxWidth))
	if len(glyphs) == 0 {
		return
	}
	defer op.Offset(image.Pt(int(math.Round(float64(pos.X))), int(math.Round(float64(pos.Y))))).Push(r.ops).Pop()
	paint.FillShape(r.ops, c, gioclip.Outline{Path: r.shaper.Shape(glyphs)}.Op())
	r.stats.Texts++
	r.stats.Paints++
}

func (r *Renderer) TextWidth(s string) float32 {
	if w, ok := r.widths.Get(s); ok {
		return w.(float32)
	}
	var adv fixed.Int26_6
	for _, g := range r.layout(s, math.MaxInt32) {
		adv += g.Advance
	}
	w := float32(adv) / 64
	r.widths.Add(s, w)
	return w
}

func (r *Renderer) LineHeight() float32 {
	if r.lineHeight == 0 {
		if glyphs := r.layout("Xg", math.MaxInt32); len(glyphs) > 0 {
			r.lineHeight = float32((glyphs[0].Ascent + glyphs[0].Descent).Ceil())
		}
	}
	return r.lineHeight
}

// Frame records one frame of v into rops and returns the recorded ops.
func Frame(v *timing.View, r *Renderer, rops *mem.ReusableOps) (*op.Ops, Stats) {
	ops := rops.Get()
	r.Begin(ops)
	v.Draw(r)
	return ops, r.End()
}
