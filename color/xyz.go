package color

import "math"

// LabValue is a float-precision CIELAB value, used by the repository and the
// ΔE00 pipeline, which need full precision.
type LabValue struct {
	L, A, B float64
}

// whitePoint is a CIE XYZ reference white.
type whitePoint struct {
	X, Y, Z float64
}

var (
	whiteD50 = whitePoint{X: 0.9642, Y: 1.0000, Z: 0.8251}
	whiteD65 = whitePoint{X: 0.95047, Y: 1.00000, Z: 1.08883}
)

const (
	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

// bradfordD65toD50 and bradfordD50toD65 are the fixed Bradford chromatic
// adaptation matrices used throughout the pack's color math (row-major,
// applied as M * [x y z]^T).
var bradfordD65toD50 = [3][3]float64{
	{1.0478112, 0.0228866, -0.0501270},
	{0.0295424, 0.9904844, -0.0170491},
	{-0.0092345, 0.0150436, 0.7521316},
}

var bradfordD50toD65 = [3][3]float64{
	{0.9555766, -0.0230393, 0.0631636},
	{-0.0282895, 1.0099416, 0.0210077},
	{0.0122982, -0.0204830, 1.3299098},
}

func applyMatrix(m [3][3]float64, x, y, z float64) (float64, float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2]*z,
		m[1][0]*x + m[1][1]*y + m[1][2]*z,
		m[2][0]*x + m[2][1]*y + m[2][2]*z
}

// AdaptD65ToD50 applies the Bradford chromatic adaptation transform.
func AdaptD65ToD50(x, y, z float64) (float64, float64, float64) {
	return applyMatrix(bradfordD65toD50, x, y, z)
}

// AdaptD50ToD65 applies the inverse Bradford chromatic adaptation transform.
func AdaptD50ToD65(x, y, z float64) (float64, float64, float64) {
	return applyMatrix(bradfordD50toD65, x, y, z)
}

func gammaEncode(channel float64) float64 {
	if channel <= 0 {
		return 0
	}
	if channel <= 0.0031308 {
		return 12.92 * channel
	}
	return 1.055*math.Pow(channel, 1.0/2.4) - 0.055
}

func gammaDecode(channel float64) float64 {
	if channel <= 0.04045 {
		return channel / 12.92
	}
	return math.Pow((channel+0.055)/1.055, 2.4)
}

// XYZD65FromRGB converts an sRGB color to CIE XYZ under the D65 illuminant.
func XYZD65FromRGB(c RGB) (x, y, z float64) {
	r := gammaDecode(float64(c.R) / 255.0)
	g := gammaDecode(float64(c.G) / 255.0)
	b := gammaDecode(float64(c.B) / 255.0)

	x = 0.4124564*r + 0.3575761*g + 0.1804375*b
	y = 0.2126729*r + 0.7151522*g + 0.0721750*b
	z = 0.0193339*r + 0.1191920*g + 0.9503041*b
	return x, y, z
}

// RGBFromXYZD65 converts CIE XYZ under D65 back to a clamped sRGB color.
func RGBFromXYZD65(x, y, z float64) RGB {
	rLinear := 3.2404542*x + -1.5371385*y + -0.4985314*z
	gLinear := -0.9692660*x + 1.8760108*y + 0.0415560*z
	bLinear := 0.0556434*x + -0.2040259*y + 1.0572252*z

	r := gammaEncode(rLinear) * 255.0
	g := gammaEncode(gLinear) * 255.0
	b := gammaEncode(bLinear) * 255.0
	return NewRGBFromFloat(r/255.0, g/255.0, b/255.0)
}

func labD50F(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16.0) / 116.0
}

func labD50FInverse(t float64) float64 {
	t3 := t * t * t
	if t3 > labEpsilon {
		return t3
	}
	return (116.0*t - 16.0) / labKappa
}

// xyzFromLab converts a LabValue to CIE XYZ under the given reference white.
func xyzFromLab(lab LabValue, white whitePoint) (x, y, z float64) {
	fy := (lab.L + 16.0) / 116.0
	fx := fy + lab.A/500.0
	fz := fy - lab.B/200.0

	x = white.X * labD50FInverse(fx)
	y = white.Y * labD50FInverse(fy)
	z = white.Z * labD50FInverse(fz)
	return x, y, z
}

// labFromXYZ converts CIE XYZ to a LabValue under the given reference white.
func labFromXYZ(x, y, z float64, white whitePoint) LabValue {
	fx := labD50F(x / white.X)
	fy := labD50F(y / white.Y)
	fz := labD50F(z / white.Z)

	l := math.Max(0, 116.0*fy-16.0)
	a := 500.0 * (fx - fy)
	b := 200.0 * (fy - fz)
	return LabValue{L: l, A: a, B: b}
}

// LabD50FromXYZD50 converts CIE XYZ (D50) to CIELAB (D50).
func LabD50FromXYZD50(x, y, z float64) LabValue {
	return labFromXYZ(x, y, z, whiteD50)
}

// XYZD50FromLabD50 converts CIELAB (D50) to CIE XYZ (D50), per spec.md §4.1's
// inverse formulation with ε=216/24389, κ=24389/27.
func XYZD50FromLabD50(lab LabValue) (x, y, z float64) {
	return xyzFromLab(lab, whiteD50)
}

// LabD65FromXYZD65 converts CIE XYZ (D65) to CIELAB referenced to D65.
func LabD65FromXYZD65(x, y, z float64) LabValue {
	return labFromXYZ(x, y, z, whiteD65)
}

// RGBToLabD50 is the default path used by the repository: sRGB -> XYZ(D65)
// -> Bradford-adapt to D50 -> CIELAB.
func RGBToLabD50(c RGB) LabValue {
	x, y, z := XYZD65FromRGB(c)
	x50, y50, z50 := AdaptD65ToD50(x, y, z)
	return LabD50FromXYZD50(x50, y50, z50)
}

// RGBToLabD65 converts an sRGB color directly to CIELAB referenced to D65.
func RGBToLabD65(c RGB) LabValue {
	x, y, z := XYZD65FromRGB(c)
	return LabD65FromXYZD65(x, y, z)
}

// RGBFromLabD50 is the inverse of RGBToLabD50: CIELAB(D50) -> XYZ(D50) ->
// Bradford-adapt to D65 -> sRGB. Used by the ACB Lab colorspace decoder.
func RGBFromLabD50(lab LabValue) RGB {
	x50, y50, z50 := XYZD50FromLabD50(lab)
	x65, y65, z65 := AdaptD50ToD65(x50, y50, z50)
	return RGBFromXYZD65(x65, y65, z65)
}

// DeltaE00 computes the CIEDE2000 color difference between two CIELAB
// values, with kL=kC=kH=1. ΔE00(x,x) is exactly 0 up to floating point.
func DeltaE00(lab1, lab2 LabValue) float64 {
	l1, a1, b1 := lab1.L, lab1.A, lab1.B
	l2, a2, b2 := lab2.L, lab2.A, lab2.B

	c1 := math.Hypot(a1, b1)
	c2 := math.Hypot(a2, b2)
	cMean := (c1 + c2) / 2.0
	c7 := math.Pow(cMean, 7)
	g := 0.5 * (1.0 - math.Sqrt(c7/(c7+math.Pow(25.0, 7)+1e-12)))

	a1p := (1.0 + g) * a1
	a2p := (1.0 + g) * a2
	c1p := math.Hypot(a1p, b1)
	c2p := math.Hypot(a2p, b2)

	hue := func(ap, bb float64) float64 {
		if ap == 0 && bb == 0 {
			return 0
		}
		h := radToDeg(math.Atan2(bb, ap))
		if h < 0 {
			h += 360
		}
		return h
	}

	h1p := hue(a1p, b1)
	h2p := hue(a2p, b2)

	dlp := l2 - l1
	dcp := c2p - c1p

	var dhp float64
	if c1p*c2p != 0 {
		switch {
		case math.Abs(h2p-h1p) <= 180:
			dhp = h2p - h1p
		case h2p <= h1p:
			dhp = h2p - h1p + 360
		default:
			dhp = h2p - h1p - 360
		}
	}
	dhpTerm := 2.0 * math.Sqrt(c1p*c2p) * math.Sin(degToRad(dhp/2.0))

	lpm := (l1 + l2) / 2.0
	cpm := (c1p + c2p) / 2.0
	hpm := h1p + h2p
	if c1p*c2p != 0 {
		switch {
		case math.Abs(h1p-h2p) > 180:
			if h1p+h2p < 360 {
				hpm = (h1p + h2p + 360) / 2.0
			} else {
				hpm = (h1p + h2p - 360) / 2.0
			}
		default:
			hpm = (h1p + h2p) / 2.0
		}
	}

	t := 1.0 -
		0.17*math.Cos(degToRad(hpm-30.0)) +
		0.24*math.Cos(degToRad(2.0*hpm)) +
		0.32*math.Cos(degToRad(3.0*hpm+6.0)) -
		0.20*math.Cos(degToRad(4.0*hpm-63.0))

	sl := 1.0 + (0.015*math.Pow(lpm-50.0, 2))/math.Sqrt(20.0+math.Pow(lpm-50.0, 2))
	sc := 1.0 + 0.045*cpm
	sh := 1.0 + 0.015*cpm*t
	dt := 30.0 * math.Exp(-math.Pow((hpm-275.0)/25.0, 2))
	rc := 2.0 * math.Sqrt(math.Pow(cpm, 7)/(math.Pow(cpm, 7)+math.Pow(25.0, 7)+1e-12))
	rt := -math.Sin(degToRad(2.0*dt)) * rc

	const kl, kc, kh = 1.0, 1.0, 1.0
	dl := dlp / (kl * sl)
	dc := dcp / (kc * sc)
	dh := dhpTerm / (kh * sh)

	return math.Sqrt(dl*dl + dc*dc + dh*dh + rt*dc*dh)
}

func degToRad(d float64) float64 { return d * math.Pi / 180.0 }
func radToDeg(r float64) float64 { return r * 180.0 / math.Pi }

// ReliabilityLabel classifies a ΔE00 value into a human-facing confidence
// bucket: ≤1.0 excellent, ≤2.5 good, else doubtful.
func ReliabilityLabel(deltaE float64) string {
	switch {
	case deltaE <= 1.0:
		return "Excelente"
	case deltaE <= 2.5:
		return "Bueno"
	default:
		return "Dudoso"
	}
}
