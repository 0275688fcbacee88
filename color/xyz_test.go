package color

import (
	"math"
	"testing"
)

func TestDeltaE00Zero(t *testing.T) {
	cases := []LabValue{
		{L: 0, A: 0, B: 0},
		{L: 50, A: 20, B: -30},
		{L: 100, A: 0, B: 0},
		{L: 32.5, A: 51.2, B: -10.1},
	}

	for _, lab := range cases {
		if got := DeltaE00(lab, lab); math.Abs(got) > 1e-9 {
			t.Errorf("DeltaE00(%v, %v) = %v, want ~0", lab, lab, got)
		}
	}
}

func TestDeltaE00Symmetric(t *testing.T) {
	a := LabValue{L: 40, A: 10, B: -5}
	b := LabValue{L: 45, A: -5, B: 12}

	if got, want := DeltaE00(a, b), DeltaE00(b, a); math.Abs(got-want) > 1e-9 {
		t.Errorf("DeltaE00 is not symmetric: %v vs %v", got, want)
	}
}

func TestReliabilityLabel(t *testing.T) {
	tests := map[string]struct {
		deltaE float64
		want   string
	}{
		"zero":      {0, "Excelente"},
		"boundary1": {1.0, "Excelente"},
		"good":      {2.0, "Bueno"},
		"boundary2": {2.5, "Bueno"},
		"doubtful":  {3.0, "Dudoso"},
		"large":     {50.0, "Dudoso"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ReliabilityLabel(tc.deltaE); got != tc.want {
				t.Errorf("ReliabilityLabel(%v) = %q, want %q", tc.deltaE, got, tc.want)
			}
		})
	}
}

func TestRGBLabD50RoundTrip(t *testing.T) {
	tests := map[string]RGB{
		"white":   {255, 255, 255},
		"black":   {0, 0, 0},
		"red":     {255, 0, 0},
		"green":   {0, 255, 0},
		"blue":    {0, 0, 255},
		"gray":    {128, 128, 128},
		"lavender": {180, 170, 220},
	}

	for name, rgb := range tests {
		t.Run(name, func(t *testing.T) {
			lab := RGBToLabD50(rgb)
			got := RGBFromLabD50(lab)
			for _, pair := range [][2]uint8{{got.R, rgb.R}, {got.G, rgb.G}, {got.B, rgb.B}} {
				if d := int(pair[0]) - int(pair[1]); d < -2 || d > 2 {
					t.Errorf("round trip %v -> %v -> %v drifted beyond tolerance", rgb, lab, got)
					break
				}
			}
		})
	}
}

func TestAdaptD65D50Inverse(t *testing.T) {
	x, y, z := 0.4, 0.35, 0.3
	x50, y50, z50 := AdaptD65ToD50(x, y, z)
	gotX, gotY, gotZ := AdaptD50ToD65(x50, y50, z50)

	if math.Abs(gotX-x) > 1e-6 || math.Abs(gotY-y) > 1e-6 || math.Abs(gotZ-z) > 1e-6 {
		t.Errorf("Bradford round trip = (%v, %v, %v), want (%v, %v, %v)", gotX, gotY, gotZ, x, y, z)
	}
}

func TestDeltaE00KnownPairs(t *testing.T) {
	// Distinctly different colors should report non-trivial difference, and
	// closer colors should report a smaller one than a more distant pair.
	white := RGBToLabD50(RGB{255, 255, 255})
	black := RGBToLabD50(RGB{0, 0, 0})
	nearWhite := RGBToLabD50(RGB{250, 250, 250})

	farDelta := DeltaE00(white, black)
	nearDelta := DeltaE00(white, nearWhite)

	if nearDelta >= farDelta {
		t.Errorf("expected near-white pair delta (%v) < white/black delta (%v)", nearDelta, farDelta)
	}
}

func BenchmarkDeltaE00(b *testing.B) {
	lab1 := LabValue{L: 32.5, A: 51.2, B: -10.1}
	lab2 := LabValue{L: 40.1, A: 30.0, B: 5.0}
	for b.Loop() {
		DeltaE00(lab1, lab2)
	}
}
