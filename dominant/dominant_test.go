package dominant

import (
	"image"
	"image/color"
	"testing"
)

func setPixel(img *image.RGBA, x, y int, r, g, b, a uint8) {
	img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: a})
}

func TestExtractFourByTwoPrimaries(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	// row 0: red, red, green, green
	setPixel(img, 0, 0, 255, 0, 0, 255)
	setPixel(img, 1, 0, 255, 0, 0, 255)
	setPixel(img, 2, 0, 0, 255, 0, 255)
	setPixel(img, 3, 0, 0, 255, 0, 255)
	// row 1: blue, blue, transparent, transparent
	setPixel(img, 0, 1, 0, 0, 255, 255)
	setPixel(img, 1, 1, 0, 0, 255, 255)
	setPixel(img, 2, 1, 0, 0, 0, 0)
	setPixel(img, 3, 1, 0, 0, 0, 0)

	clusters := Extract(img, 100, false, 3)
	if len(clusters) != 3 {
		t.Fatalf("expected 3 clusters, got %d: %+v", len(clusters), clusters)
	}

	seen := map[string]bool{}
	for _, c := range clusters {
		switch {
		case c.RGB.R > 200 && c.RGB.G < 50 && c.RGB.B < 50:
			seen["red"] = true
		case c.RGB.G > 200 && c.RGB.R < 50 && c.RGB.B < 50:
			seen["green"] = true
		case c.RGB.B > 200 && c.RGB.R < 50 && c.RGB.G < 50:
			seen["blue"] = true
		}
	}
	if !seen["red"] || !seen["green"] || !seen["blue"] {
		t.Fatalf("expected red, green, and blue clusters, got %+v", clusters)
	}
}

func TestExtractSimilarToneMerge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 1))
	shades := [6][3]uint8{
		{218, 28, 28}, {222, 32, 32}, {219, 31, 29},
		{221, 29, 31}, {220, 30, 30}, {222, 28, 32},
	}
	for x, s := range shades {
		setPixel(img, x, 0, s[0], s[1], s[2], 255)
	}

	clusters := Extract(img, 35, false, 0)
	if len(clusters) != 1 {
		t.Fatalf("expected exactly 1 merged cluster at noise=35, got %d: %+v", len(clusters), clusters)
	}
	c := clusters[0].RGB
	if !(c.R > 180 && c.G < 80 && c.B < 80) {
		t.Fatalf("merged cluster %+v does not match expected dark-red range", c)
	}
}

func TestExtractIgnoreBackground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			setPixel(img, x, y, 255, 255, 255, 255)
		}
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			setPixel(img, x, y, 255, 0, 0, 255)
		}
	}

	clusters := Extract(img, 10, true, 0)
	hasRed, hasWhite := false, false
	for _, c := range clusters {
		if c.RGB.R > 200 && c.RGB.G < 50 && c.RGB.B < 50 {
			hasRed = true
		}
		if c.RGB.R == 255 && c.RGB.G == 255 && c.RGB.B == 255 {
			hasWhite = true
		}
	}
	if !hasRed {
		t.Fatalf("expected red cluster to survive background suppression, got %+v", clusters)
	}
	if hasWhite {
		t.Fatalf("expected uniform white border/background to be suppressed, got %+v", clusters)
	}
}

func TestExtractStripedBorderRetainsBackground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			setPixel(img, x, y, 255, 255, 255, 255)
		}
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x == 0 || y == 0 || x == 9 || y == 9 {
				if (x+y)%2 == 0 {
					setPixel(img, x, y, 0, 200, 0, 255)
				}
			}
		}
	}
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			setPixel(img, x, y, 255, 0, 0, 255)
		}
	}

	clusters := Extract(img, 10, true, 0)
	hasWhite := false
	for _, c := range clusters {
		if c.RGB.R == 255 && c.RGB.G == 255 && c.RGB.B == 255 {
			hasWhite = true
		}
	}
	if !hasWhite {
		t.Fatalf("striped border should not trigger background suppression, got %+v", clusters)
	}
}

func TestNoiseProfileMonotonicAutoMax(t *testing.T) {
	prev := 0
	for noise := 0; noise <= 100; noise += 5 {
		p := noiseProfile(noise)
		if p.AutoMaxColors < prev {
			t.Fatalf("auto max colors decreased at noise=%d: %d < %d", noise, p.AutoMaxColors, prev)
		}
		prev = p.AutoMaxColors
	}
	if got := noiseProfile(100).AutoMaxColors; got != 24 {
		t.Fatalf("expected auto max colors 24 at noise=100, got %d", got)
	}
}
