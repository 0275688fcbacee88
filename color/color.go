package color

import (
	"fmt"
	"math"
)

// RGB represents a color in RGB color space. It is the display color every
// parsed ColorRecord is normalized to, regardless of its source colorspace.
type RGB struct {
	R, G, B uint8
}

// NewRGB creates a new RGB color from raw 0-255 channel bytes.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// NewRGBFromFloat creates a new RGB color from float64 values (0.0-1.0),
// clamping out-of-range input before rounding to the nearest byte.
func NewRGBFromFloat(r, g, b float64) RGB {
	return RGB{
		R: uint8(math.Round(clamp(r, 0, 1) * 255)),
		G: uint8(math.Round(clamp(g, 0, 1) * 255)),
		B: uint8(math.Round(clamp(b, 0, 1) * 255)),
	}
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

// ToCMYK derives a display-only CMYK approximation from an RGB color, for
// the ExpertIndex's cmyk_approx field. This is not a color-managed
// conversion (no ICC profile involved, per spec.md's non-goals).
func (c RGB) ToCMYK() CMYK {
	r := float64(c.R) / 255.0
	g := float64(c.G) / 255.0
	b := float64(c.B) / 255.0

	k := 1.0 - math.Max(r, math.Max(g, b))
	if k == 1.0 {
		return CMYK{C: 0, M: 0, Y: 0, K: 100}
	}

	cy := (1.0 - r - k) / (1.0 - k)
	mg := (1.0 - g - k) / (1.0 - k)
	ye := (1.0 - b - k) / (1.0 - k)

	return CMYK{
		C: uint8(math.Round(cy * 100)),
		M: uint8(math.Round(mg * 100)),
		Y: uint8(math.Round(ye * 100)),
		K: uint8(math.Round(k * 100)),
	}
}

// CMYK represents a color in CMYK color space as 0-100 percentages.
type CMYK struct {
	C, M, Y, K uint8
}

func (c CMYK) String() string {
	return fmt.Sprintf("CMYK(%d%%, %d%%, %d%%, %d%%)", c.C, c.M, c.Y, c.K)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
