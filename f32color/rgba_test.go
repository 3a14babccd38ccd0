package f32color

import (
	"image/color"
	"testing"
)

func TestMulAlpha(t *testing.T) {
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 200}
	if got := MulAlpha(c, 0.5); got.A != 100 || got.R != 10 {
		t.Errorf("MulAlpha(c, 0.5) = %v, want alpha 100 and unchanged channels", got)
	}
	if got := MulAlpha(c, 2); got.A != 200 {
		t.Errorf("MulAlpha(c, 2).A = %d, want 200", got.A)
	}
}
