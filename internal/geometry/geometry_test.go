package geometry

import (
	"math"
	"testing"
)

func TestRectValid(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{"unit box", Rect{0, 0, 1, 1}, true},
		{"interior box", Rect{0.2, 0.1, 0.6, 0.3}, true},
		{"degenerate point", Rect{0.5, 0.5, 0.5, 0.5}, true},
		{"inverted x", Rect{0.6, 0.1, 0.2, 0.3}, false},
		{"inverted y", Rect{0.2, 0.3, 0.6, 0.1}, false},
		{"negative", Rect{-0.1, 0, 0.5, 0.5}, false},
		{"out of range", Rect{0.2, 0.1, 1.2, 0.3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectClamp(t *testing.T) {
	r := Rect{1.3, -0.2, 0.4, 0.9}.Clamp()
	if !r.Valid() {
		t.Fatalf("clamped rect should be valid, got %+v", r)
	}
	want := Rect{0.4, 0, 1, 0.9}
	if r != want {
		t.Errorf("Clamp() = %+v, want %+v", r, want)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{0.2, 0.1, 0.6, 0.3}
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{0.4, 0.2}, true},
		{"edge", Point{0.2, 0.1}, true},
		{"opposite corner", Point{0.6, 0.3}, true},
		{"outside", Point{0.9, 0.9}, false},
		{"just left", Point{0.19, 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	source := Size{Width: 1920, Height: 1080}
	points := [][2]float64{{0, 0}, {1919, 1079}, {960, 540}, {1, 1}, {1337, 42}}

	for _, p := range points {
		n := NormalizeSourcePoint(p[0], p[1], source)
		x, y := ToSourcePoint(n, source)
		if math.Abs(x-p[0]) > 1e-6 || math.Abs(y-p[1]) > 1e-6 {
			t.Errorf("round trip of (%v,%v) gave (%v,%v)", p[0], p[1], x, y)
		}
	}
}

func TestNormalizeDisplayPointAtPixelRatio(t *testing.T) {
	// 2:1 backing-store ratio, as on a typical high-DPI screen.
	c := Canvas{
		Pixel:   Size{Width: 1280, Height: 960},
		Display: Size{Width: 640, Height: 480},
	}

	// A pointer event at the display center must land at the normalized
	// center regardless of the ratio.
	p := c.NormalizeDisplayPoint(320, 240)
	if math.Abs(p.X-0.5) > 1e-9 || math.Abs(p.Y-0.5) > 1e-9 {
		t.Errorf("center click normalized to %+v, want (0.5,0.5)", p)
	}

	// A quarter-way click.
	p = c.NormalizeDisplayPoint(160, 120)
	if math.Abs(p.X-0.25) > 1e-9 || math.Abs(p.Y-0.25) > 1e-9 {
		t.Errorf("quarter click normalized to %+v, want (0.25,0.25)", p)
	}
}

func TestNormalizeDisplayPointNonUniformRatio(t *testing.T) {
	// Width and height scaled differently; both axes must use their own factor.
	c := Canvas{
		Pixel:   Size{Width: 1000, Height: 500},
		Display: Size{Width: 500, Height: 500},
	}
	p := c.NormalizeDisplayPoint(250, 250)
	if math.Abs(p.X-0.5) > 1e-9 || math.Abs(p.Y-0.5) > 1e-9 {
		t.Errorf("normalized to %+v, want (0.5,0.5)", p)
	}
}

func TestToCanvasRect(t *testing.T) {
	c := Canvas{Pixel: Size{Width: 800, Height: 600}}
	x0, y0, x1, y1 := c.ToCanvasRect(Rect{0.25, 0.5, 0.75, 1})
	if x0 != 200 || y0 != 300 || x1 != 600 || y1 != 600 {
		t.Errorf("ToCanvasRect gave (%v,%v,%v,%v)", x0, y0, x1, y1)
	}
}
