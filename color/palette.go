package color

import (
	"hash/fnv"
	"image/color"
)

// Event lightness and chroma. Dark text stays readable on top of these.
const (
	eventLightness = 0.78
	eventChroma    = 0.11
)

// ForName returns a stable color for an event name. Equal names always produce equal colors, across runs and
// sessions.
func ForName(name string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(name))
	return ForHash(h.Sum32())
}

// ForHash spreads hash over the hue circle.
func ForHash(hash uint32) color.NRGBA {
	// Vary lightness a little so that neighboring hues remain distinguishable.
	l := eventLightness - 0.06*float32(hash>>29&3)/3
	return Oklch{L: l, C: eventChroma, H: float32(hash%360) + float32(hash>>9&0xff)/256, A: 1}.NRGBA()
}

// ForIndex returns the i-th color of an open-ended enumeration, such as the series of a graph.
func ForIndex(i int) color.NRGBA {
	// Golden angle stepping keeps consecutive indices far apart no matter how many there are.
	h := float32(i) * 137.50776
	for h >= 360 {
		h -= 360
	}
	return Oklch{L: 0.70, C: 0.14, H: h, A: 1}.NRGBA()
}

// Gradient interpolates in Oklab between from and to. t is clamped to [0, 1].
func Gradient(from, to Oklch, t float32) color.NRGBA {
	t = min(max(t, 0), 1)
	a, b := from.Oklab(), to.Oklab()
	return Oklab{
		L:     a.L + (b.L-a.L)*t,
		A:     a.A + (b.A-a.A)*t,
		B:     a.B + (b.B-a.B)*t,
		Alpha: a.Alpha + (b.Alpha-a.Alpha)*t,
	}.Oklch().NRGBA()
}
