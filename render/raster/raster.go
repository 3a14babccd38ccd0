// Package raster paints a view into an in-memory image, for writing PNGs without a GPU.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"honnef.co/go/timingview/clip"
	"honnef.co/go/timingview/timing"

	"gioui.org/f32"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// defaultWidthCacheSize bounds the number of distinct labels whose width is remembered.
const defaultWidthCacheSize = 4096

const ellipsis = "..."

// Renderer draws into an RGBA image using a fixed bitmap font.
type Renderer struct {
	img    *image.RGBA
	face   font.Face
	widths *lru.Cache
}

var _ timing.Renderer = (*Renderer)(nil)

// New returns a renderer for an image of the given size. cacheSize bounds the text width cache; zero or less picks a
// default.
func New(width, height, cacheSize int) *Renderer {
	if cacheSize <= 0 {
		cacheSize = defaultWidthCacheSize
	}
	widths, err := lru.New(cacheSize)
	if err != nil {
		panic(fmt.Sprintf("creating width cache: %s", err))
	}
	return &Renderer{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		face:   basicfont.Face7x13,
		widths: widths,
	}
}

func (r *Renderer) Image() *image.RGBA { return r.img }

// Resize replaces the image with a blank one of the new size. Cached text widths are kept.
func (r *Renderer) Resize(width, height int) {
	if b := r.img.Bounds(); b.Dx() == width && b.Dy() == height {
		clear(r.img.Pix)
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// WritePNG encodes the image as PNG.
func (r *Renderer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// pixelRect rounds rect to whole pixels. Rectangles narrower than a pixel still cover one.
func pixelRect(rect clip.FRect) image.Rectangle {
	x0 := int(math.Round(float64(rect.Min.X)))
	y0 := int(math.Round(float64(rect.Min.Y)))
	x1 := int(math.Round(float64(rect.Max.X)))
	y1 := int(math.Round(float64(rect.Max.Y)))
	if x1 == x0 && rect.Max.X > rect.Min.X {
		x1++
	}
	if y1 == y0 && rect.Max.Y > rect.Min.Y {
		y1++
	}
	return image.Rect(x0, y0, x1, y1)
}

func (r *Renderer) fill(rect image.Rectangle, c color.NRGBA) {
	if c.A == 0 || rect.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xFF {
		op = draw.Src
	}
	draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, op)
}

// bounds is the image in float coordinates, widened by a pixel so that rounding at the edges is unaffected.
func (r *Renderer) bounds() clip.FRect {
	b := r.img.Bounds()
	return clip.FRect{
		Min: f32.Pt(float32(b.Min.X-1), float32(b.Min.Y-1)),
		Max: f32.Pt(float32(b.Max.X+1), float32(b.Max.Y+1)),
	}
}

// FillRect fills rect. Events that are still open end at infinity, so the rectangle is clipped to the image before
// it is converted to integer pixels.
func (r *Renderer) FillRect(rect clip.FRect, c color.NRGBA) {
	rect = rect.Intersect(r.bounds())
	if rect.Empty() {
		return
	}
	r.fill(pixelRect(rect), c)
}

func (r *Renderer) StrokeRect(rect clip.FRect, width float32, c color.NRGBA) {
	if rect.Empty() {
		return
	}
	// Clip to a margin past the image so that the borders of oversized rectangles stay off-screen.
	w := max(int(math.Round(float64(width))), 1)
	b := r.bounds()
	m := float32(w)
	rect = rect.Intersect(clip.FRect{Min: f32.Pt(b.Min.X-m, b.Min.Y-m), Max: f32.Pt(b.Max.X+m, b.Max.Y+m)})
	if rect.Empty() {
		return
	}
	pr := pixelRect(rect)
	if 2*w >= pr.Dx() || 2*w >= pr.Dy() {
		r.fill(pr, c)
		return
	}
	r.fill(image.Rect(pr.Min.X, pr.Min.Y, pr.Max.X, pr.Min.Y+w), c)
	r.fill(image.Rect(pr.Min.X, pr.Max.Y-w, pr.Max.X, pr.Max.Y), c)
	r.fill(image.Rect(pr.Min.X, pr.Min.Y+w, pr.Min.X+w, pr.Max.Y-w), c)
	r.fill(image.Rect(pr.Max.X-w, pr.Min.Y+w, pr.Max.X, pr.Max.Y-w), c)
}

// Polyline draws straight segments between consecutive points by stamping a square of the line's width at every
// pixel step.
func (r *Renderer) Polyline(pts []f32.Point, width float32, c color.NRGBA) {
	w := max(int(math.Round(float64(width))), 1)
	stamp := func(x, y float32) {
		x0 := int(math.Floor(float64(x))) - (w-1)/2
		y0 := int(math.Floor(float64(y))) - (w-1)/2
		r.fill(image.Rect(x0, y0, x0+w, y0+w), c)
	}
	if len(pts) == 1 {
		stamp(pts[0].X, pts[0].Y)
		return
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		if dx == 0 || dy == 0 {
			// Axis-aligned segments, the common case for step graphs, are a single fill.
			x0, x1 := min(a.X, b.X), max(a.X, b.X)
			y0, y1 := min(a.Y, b.Y), max(a.Y, b.Y)
			off := float32(w-1) / 2
			r.FillRect(clip.FRect{Min: f32.Pt(x0-off, y0-off), Max: f32.Pt(x1+off+1, y1+off+1)}, c)
			continue
		}
		steps := int(math.Ceil(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy)))))
		for s := 0; s <= steps; s++ {
			t := float32(s) / float32(steps)
			stamp(a.X+dx*t, a.Y+dy*t)
		}
	}
}

// truncate shortens s so that it fits in maxWidth, marking the cut with an ellipsis. It returns "" if not even the
// ellipsis fits.
func (r *Renderer) truncate(s string, maxWidth float32) string {
	if r.TextWidth(s) <= maxWidth {
		return s
	}
	avail := fixed.Int26_6(maxWidth*64) - font.MeasureString(r.face, ellipsis)
	if avail < 0 {
		return ""
	}
	var adv fixed.Int26_6
	for i, ch := range s {
		a, ok := r.face.GlyphAdvance(ch)
		if !ok {
			a, _ = r.face.GlyphAdvance('?')
		}
		if adv+a > avail {
			return s[:i] + ellipsis
		}
		adv += a
	}
	return s
}

func (r *Renderer) DrawText(pos f32.Point, maxWidth float32, s string, c color.NRGBA) {
	s = r.truncate(s, maxWidth)
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(int(math.Round(float64(pos.X))), int(math.Round(float64(pos.Y)))+r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func (r *Renderer) TextWidth(s string) float32 {
	if w, ok := r.widths.Get(s); ok {
		return w.(float32)
	}
	w := float32(font.MeasureString(r.face, s)) / 64
	r.widths.Add(s, w)
	return w
}

func (r *Renderer) LineHeight() float32 {
	return float32(r.face.Metrics().Height.Ceil())
}

// CachedWidths returns the number of labels whose width is cached.
func (r *Renderer) CachedWidths() int { return r.widths.Len() }
