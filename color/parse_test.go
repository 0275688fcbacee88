package color

import (
	"errors"
	"testing"
)

func TestParseColorInputHex(t *testing.T) {
	tests := map[string]RGB{
		"#ffffff": {255, 255, 255},
		"ffffff":  {255, 255, 255},
		"#000000": {0, 0, 0},
		"#fff":    {255, 255, 255},
		"#f00":    {255, 0, 0},
		"#336699": {0x33, 0x66, 0x99},
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := ParseColorInput(input)
			if err != nil {
				t.Fatalf("ParseColorInput(%q) error: %v", input, err)
			}
			if got != want {
				t.Errorf("ParseColorInput(%q) = %v, want %v", input, got, want)
			}
		})
	}
}

func TestParseColorInputFunctions(t *testing.T) {
	tests := map[string]struct {
		input string
		want  RGB
	}{
		"rgb":  {"rgb(51, 102, 153)", RGB{51, 102, 153}},
		"rgba": {"rgba(51, 102, 153, 0.5)", RGB{51, 102, 153}},
		"hsl-white": {"hsl(0, 0%, 100%)", RGB{255, 255, 255}},
		"hsl-black": {"hsl(0, 0%, 0%)", RGB{0, 0, 0}},
		"cmyk-black": {"cmyk(0%, 0%, 0%, 100%)", RGB{0, 0, 0}},
		"cmyk-white": {"cmyk(0%, 0%, 0%, 0%)", RGB{255, 255, 255}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseColorInput(tc.input)
			if err != nil {
				t.Fatalf("ParseColorInput(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseColorInput(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseColorInputInvalid(t *testing.T) {
	tests := []string{"", "notacolor", "#gg0000", "#ff", "rgb(1,2)"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseColorInput(input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseColorInput(%q) error = %v, want ErrInvalidInput", input, err)
			}
		})
	}
}

func TestRGBToHex(t *testing.T) {
	if got, want := RGBToHex(RGB{0x33, 0x66, 0x99}), "#336699"; got != want {
		t.Errorf("RGBToHex = %q, want %q", got, want)
	}
}

func TestCMYKBytesToRGB(t *testing.T) {
	tests := map[string]struct {
		c, m, y, k byte
		want       RGB
	}{
		// ACB encodes ink amount inverted: 0 = full ink, 255 = no ink.
		"black-via-k": {255, 255, 255, 0, RGB{0, 0, 0}},
		"white-no-ink": {255, 255, 255, 255, RGB{255, 255, 255}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CMYKBytesToRGB(tc.c, tc.m, tc.y, tc.k); got != tc.want {
				t.Errorf("CMYKBytesToRGB(%d,%d,%d,%d) = %v, want %v", tc.c, tc.m, tc.y, tc.k, got, tc.want)
			}
		})
	}
}

func TestHSLToRGBPrimary(t *testing.T) {
	tests := map[string]struct {
		h, s, l float64
		want    RGB
	}{
		"red":   {0, 1, 0.5, RGB{255, 0, 0}},
		"green": {120, 1, 0.5, RGB{0, 255, 0}},
		"blue":  {240, 1, 0.5, RGB{0, 0, 255}},
		"gray":  {0, 0, 0.5, RGB{128, 128, 128}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := HSLToRGB(tc.h, tc.s, tc.l)
			for _, pair := range [][2]uint8{{got.R, tc.want.R}, {got.G, tc.want.G}, {got.B, tc.want.B}} {
				if d := int(pair[0]) - int(pair[1]); d < -1 || d > 1 {
					t.Errorf("HSLToRGB(%v, %v, %v) = %v, want %v", tc.h, tc.s, tc.l, got, tc.want)
					break
				}
			}
		})
	}
}
