package color

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned by ParseColorInput when a color string matches
// none of the supported forms.
var ErrInvalidInput = errors.New("color: invalid color input")

var (
	rgbFuncRe  = regexp.MustCompile(`(?i)^rgba?\(\s*([\d.]+)\s*,\s*([\d.]+)\s*,\s*([\d.]+)\s*(?:,\s*[\d.]+\s*)?\)$`)
	hslFuncRe  = regexp.MustCompile(`(?i)^hsla?\(\s*([\d.]+)\s*,\s*([\d.]+)%\s*,\s*([\d.]+)%\s*(?:,\s*[\d.]+\s*)?\)$`)
	cmykFuncRe = regexp.MustCompile(`(?i)^cmyk\(\s*([\d.]+)%?\s*,\s*([\d.]+)%?\s*,\s*([\d.]+)%?\s*,\s*([\d.]+)%?\s*\)$`)
	hexDigitRe = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// ParseColorInput accepts the same free-form color strings the pack's
// original search box does: bare or #-prefixed 3/6-digit hex, rgb()/rgba(),
// hsl()/hsla(), and cmyk(). It returns ErrInvalidInput for anything else.
func ParseColorInput(input string) (RGB, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return RGB{}, fmt.Errorf("%w: empty string", ErrInvalidInput)
	}

	if hex := strings.TrimPrefix(s, "#"); hexDigitRe.MatchString(hex) && (len(hex) == 3 || len(hex) == 6) {
		return HexToRGB(hex)
	}

	if m := rgbFuncRe.FindStringSubmatch(s); m != nil {
		r, err1 := strconv.ParseFloat(m[1], 64)
		g, err2 := strconv.ParseFloat(m[2], 64)
		b, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return RGB{}, fmt.Errorf("%w: %s", ErrInvalidInput, s)
		}
		return NewRGB(uint8(clamp(r, 0, 255)), uint8(clamp(g, 0, 255)), uint8(clamp(b, 0, 255))), nil
	}

	if m := hslFuncRe.FindStringSubmatch(s); m != nil {
		h, err1 := strconv.ParseFloat(m[1], 64)
		sat, err2 := strconv.ParseFloat(m[2], 64)
		l, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return RGB{}, fmt.Errorf("%w: %s", ErrInvalidInput, s)
		}
		return HSLToRGB(h, sat/100.0, l/100.0), nil
	}

	if m := cmykFuncRe.FindStringSubmatch(s); m != nil {
		c, err1 := strconv.ParseFloat(m[1], 64)
		mg, err2 := strconv.ParseFloat(m[2], 64)
		y, err3 := strconv.ParseFloat(m[3], 64)
		k, err4 := strconv.ParseFloat(m[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return RGB{}, fmt.Errorf("%w: %s", ErrInvalidInput, s)
		}
		return CMYKFractionToRGB(c/100.0, mg/100.0, y/100.0, k/100.0), nil
	}

	return RGB{}, fmt.Errorf("%w: %s", ErrInvalidInput, s)
}

// HexToRGB parses a 3 or 6 hex-digit string (with or without a leading '#')
// into an RGB value.
func HexToRGB(hex string) (RGB, error) {
	hex = strings.TrimPrefix(hex, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
		// already full form
	default:
		return RGB{}, fmt.Errorf("%w: %q is not 3 or 6 hex digits", ErrInvalidInput, hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q: %v", ErrInvalidInput, hex, err)
	}
	return RGB{
		R: uint8(v >> 16 & 0xFF),
		G: uint8(v >> 8 & 0xFF),
		B: uint8(v & 0xFF),
	}, nil
}

// RGBToHex formats an RGB value as an uppercase "#RRGGBB" string.
func RGBToHex(c RGB) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// CMYKBytesToRGB converts the raw 0-255 byte-per-channel CMYK components
// read directly off an ACB record. The Adobe Color Book encoding inverts
// ink amount into the byte value (0 = full ink, 255 = no ink), so each byte
// is first flipped to an ordinary 0-1 ink fraction before the standard
// CMYK->RGB formula applies.
func CMYKBytesToRGB(c, m, y, k byte) RGB {
	cFrac := float64(255-int(c)) / 255.0
	mFrac := float64(255-int(m)) / 255.0
	yFrac := float64(255-int(y)) / 255.0
	kFrac := float64(255-int(k)) / 255.0
	return CMYKFractionToRGB(cFrac, mFrac, yFrac, kFrac)
}

// CMYKFractionToRGB converts CMYK components expressed as 0-1 fractions
// (rather than CMYK's 0-100 percentage form) into an RGB color.
func CMYKFractionToRGB(c, m, y, k float64) RGB {
	r := 255.0 * (1.0 - c) * (1.0 - k)
	g := 255.0 * (1.0 - m) * (1.0 - k)
	b := 255.0 * (1.0 - y) * (1.0 - k)
	return NewRGBFromFloat(r/255.0, g/255.0, b/255.0)
}

// LabBytesToRGB converts the raw ACB Lab record bytes (L' 0-255, a' and b'
// 0-255 offset by 128) into an RGB color via the D50 CIELAB pipeline.
func LabBytesToRGB(lByte, aByte, bByte byte) RGB {
	lab := LabValue{
		L: float64(lByte) / 255.0 * 100.0,
		A: float64(int(aByte) - 128),
		B: float64(int(bByte) - 128),
	}
	return RGBFromLabD50(lab)
}

// HSLToRGB converts HSL (h in degrees 0-360, s and l as 0-1 fractions) to RGB.
func HSLToRGB(h, s, l float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	if s == 0 {
		return NewRGBFromFloat(l, l, l)
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	hueToChannel := func(t float64) float64 {
		if t < 0 {
			t += 1
		}
		if t > 1 {
			t -= 1
		}
		switch {
		case t < 1.0/6.0:
			return p + (q-p)*6*t
		case t < 1.0/2.0:
			return q
		case t < 2.0/3.0:
			return p + (q-p)*(2.0/3.0-t)*6
		default:
			return p
		}
	}

	hn := h / 360.0
	r := hueToChannel(hn + 1.0/3.0)
	g := hueToChannel(hn)
	b := hueToChannel(hn - 1.0/3.0)
	return NewRGBFromFloat(r, g, b)
}
