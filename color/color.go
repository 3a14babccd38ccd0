// Package color derives the colors of timing events. Event colors are generated in Oklch, where equal steps in
// hue and lightness look equally far apart, and converted to sRGB for drawing.
package color

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

type Oklab struct {
	L, A, B float32
	Alpha   float32
}

type Oklch struct {
	L, C, H float32
	A       float32
}

type LinearSRGB struct {
	R, G, B, A float32
}

type SRGB struct {
	R, G, B, A float32
}

func (c Oklch) Oklab() Oklab {
	h := float64(c.H) * (math.Pi / 180)
	return Oklab{
		L:     c.L,
		A:     c.C * float32(math.Cos(h)),
		B:     c.C * float32(math.Sin(h)),
		Alpha: c.A,
	}
}

func (c Oklab) Oklch() Oklch {
	hue := float32(math.Atan2(float64(c.B), float64(c.A)) * (180 / math.Pi))
	if hue < 0 {
		hue += 360
	}
	return Oklch{
		L: c.L,
		C: float32(math.Hypot(float64(c.A), float64(c.B))),
		H: hue,
		A: c.Alpha,
	}
}

// LinearSRGB converts to linear sRGB. Colors outside of the sRGB gamut produce channels outside of [0, 1].
func (c Oklab) LinearSRGB() LinearSRGB {
	l_ := c.L + 0.3963377774*c.A + 0.2158037573*c.B
	m_ := c.L - 0.1055613458*c.A - 0.0638541728*c.B
	s_ := c.L - 0.0894841775*c.A - 1.2914855480*c.B

	l := l_ * l_ * l_
	m := m_ * m_ * m_
	s := s_ * s_ * s_

	return LinearSRGB{
		R: +4.0767416621*l - 3.3077115913*m + 0.2309699292*s,
		G: -1.2684380046*l + 2.6097574011*m - 0.3413193965*s,
		B: -0.0041960863*l - 0.7034186147*m + 1.7076147010*s,
		A: c.Alpha,
	}
}

func (c LinearSRGB) inGamut() bool {
	const eps = 1e-4
	return c.R >= -eps && c.R <= 1+eps &&
		c.G >= -eps && c.G <= 1+eps &&
		c.B >= -eps && c.B <= 1+eps
}

func (c LinearSRGB) clamp() LinearSRGB {
	cl := func(f float32) float32 { return min(max(f, 0), 1) }
	return LinearSRGB{cl(c.R), cl(c.G), cl(c.B), c.A}
}

// ToSRGBGamut reduces chroma until the color fits in sRGB, keeping lightness and hue.
func (c Oklch) ToSRGBGamut() LinearSRGB {
	if c.L >= 1 {
		return LinearSRGB{1, 1, 1, c.A}
	}
	if c.L <= 0 {
		return LinearSRGB{0, 0, 0, c.A}
	}
	if s := c.Oklab().LinearSRGB(); s.inGamut() {
		return s.clamp()
	}

	lo, hi := float32(0), c.C
	for hi-lo > 0.0005 {
		c.C = (lo + hi) / 2
		if c.Oklab().LinearSRGB().inGamut() {
			lo = c.C
		} else {
			hi = c.C
		}
	}
	c.C = lo
	return c.Oklab().LinearSRGB().clamp()
}

func (c LinearSRGB) SRGB() SRGB {
	t := func(v float32) float32 {
		f := float64(v)
		if f >= 0.0031308 {
			return float32(1.055*math.Pow(f, 1.0/2.4) - 0.055)
		}
		return float32(12.92 * f)
	}
	return SRGB{t(c.R), t(c.G), t(c.B), c.A}
}

func (c SRGB) NRGBA() color.NRGBA {
	u8 := func(f float32) uint8 {
		return uint8(math.Round(float64(min(max(f, 0), 1)) * 255))
	}
	return color.NRGBA{R: u8(c.R), G: u8(c.G), B: u8(c.B), A: u8(c.A)}
}

func (c Oklch) NRGBA() color.NRGBA {
	return c.ToSRGBGamut().SRGB().NRGBA()
}

// ARGB converts a packed 0xAARRGGBB value.
func ARGB(v uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// RGBA converts a packed 0xRRGGBBAA value.
func RGBA(v uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
}

// ParseHex parses colors written as #RRGGBB or #RRGGBBAA. The leading # is optional.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xFF
	}
	return RGBA(uint32(v)), nil
}
