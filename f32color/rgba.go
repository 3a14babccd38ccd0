// SPDX-License-Identifier: Unlicense OR MIT

package f32color

import "image/color"

// MulAlpha scales the color's alpha by alpha, which is clamped to [0, 1].
func MulAlpha(c color.NRGBA, alpha float32) color.NRGBA {
	alpha = min(max(alpha, 0), 1)
	c.A = uint8(float32(c.A)*alpha + 0.5)
	return c
}
