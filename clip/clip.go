// Package clip provides float rectangles, the geometry shared by the renderers.
package clip

import (
	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
)

// FRect is a rectangle with float coordinates. Max is exclusive.
type FRect struct {
	Min f32.Point
	Max f32.Point
}

// FRectXYWH returns the rectangle at x, y with size w×h.
func FRectXYWH(x, y, w, h float32) FRect {
	return FRect{Min: f32.Pt(x, y), Max: f32.Pt(x+w, y+h)}
}

func (r FRect) Dx() float32 { return r.Max.X - r.Min.X }
func (r FRect) Dy() float32 { return r.Max.Y - r.Min.Y }

func (r FRect) Empty() bool { return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y }

func (r FRect) Contains(pt f32.Point) bool {
	return pt.X >= r.Min.X && pt.X < r.Max.X && pt.Y >= r.Min.Y && pt.Y < r.Max.Y
}

// Intersect returns the largest rectangle contained in both r and s. The result is empty if they don't overlap.
func (r FRect) Intersect(s FRect) FRect {
	r.Min.X = max(r.Min.X, s.Min.X)
	r.Min.Y = max(r.Min.Y, s.Min.Y)
	r.Max.X = min(r.Max.X, s.Max.X)
	r.Max.Y = min(r.Max.Y, s.Max.Y)
	if r.Empty() {
		return FRect{}
	}
	return r
}

func (r FRect) Path(ops *op.Ops) clip.PathSpec {
	var p clip.Path
	p.Begin(ops)
	r.IntoPath(&p)
	return p.End()
}

func (r FRect) IntoPath(p *clip.Path) {
	p.MoveTo(r.Min)
	p.LineTo(f32.Pt(r.Max.X, r.Min.Y))
	p.LineTo(r.Max)
	p.LineTo(f32.Pt(r.Min.X, r.Max.Y))
	p.LineTo(r.Min)
}

// IntoPathR is like IntoPath but winds the other way, which cuts the rectangle out of an enclosing one.
func (r FRect) IntoPathR(p *clip.Path) {
	p.MoveTo(r.Min)
	p.LineTo(f32.Pt(r.Min.X, r.Max.Y))
	p.LineTo(r.Max)
	p.LineTo(f32.Pt(r.Max.X, r.Min.Y))
	p.LineTo(r.Min)
}

func (r FRect) Op(ops *op.Ops) clip.Op {
	return clip.Outline{Path: r.Path(ops)}.Op()
}

// RectangularOutline is the border of Rect, Width wide, drawn inside of it.
type RectangularOutline struct {
	Rect  FRect
	Width float32
}

func (out RectangularOutline) Op(ops *op.Ops) clip.Op {
	var p clip.Path
	p.Begin(ops)
	out.Rect.IntoPath(&p)
	inner := FRect{
		Min: f32.Pt(out.Rect.Min.X+out.Width, out.Rect.Min.Y+out.Width),
		Max: f32.Pt(out.Rect.Max.X-out.Width, out.Rect.Max.Y-out.Width),
	}
	if !inner.Empty() {
		inner.IntoPathR(&p)
	}
	p.Close()

	return clip.Outline{Path: p.End()}.Op()
}

// Batch accumulates many rectangles into a single path, so that they can be filled with one paint operation.
type Batch struct {
	path  clip.Path
	ops   *op.Ops
	count int
}

func (b *Batch) Add(ops *op.Ops, r FRect) {
	if r.Empty() {
		return
	}
	if b.count == 0 {
		b.ops = ops
		b.path.Begin(ops)
	} else if b.ops != ops {
		panic("rectangles of one batch must be recorded into the same ops")
	}
	r.IntoPath(&b.path)
	b.count++
}

func (b *Batch) Len() int { return b.count }

// Op ends the batch and returns its outline. The batch can be reused afterwards.
func (b *Batch) Op() (clip.Op, bool) {
	if b.count == 0 {
		return clip.Op{}, false
	}
	spec := b.path.End()
	b.count = 0
	b.ops = nil
	return clip.Outline{Path: spec}.Op(), true
}
