// Package geometry holds the canonical detected-text model and the three
// coordinate spaces it moves between: source-frame pixels, normalized [0,1],
// and display-canvas pixels.
package geometry

import "fmt"

// Rect is an axis-aligned bounding box in normalized coordinates,
// X0 ≤ X1 and Y0 ≤ Y1, all components in [0,1].
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Valid reports whether the rect satisfies the normalized-box invariant.
func (r Rect) Valid() bool {
	return r.X0 >= 0 && r.Y0 >= 0 &&
		r.X0 <= r.X1 && r.Y0 <= r.Y1 &&
		r.X1 <= 1 && r.Y1 <= 1
}

// Contains reports whether the normalized point lies inside the rect,
// boundaries included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Intersects reports whether two rects overlap with non-zero or touching area.
func (r Rect) Intersects(o Rect) bool {
	return r.X0 <= o.X1 && o.X0 <= r.X1 && r.Y0 <= o.Y1 && o.Y0 <= r.Y1
}

// Clamp returns the rect with every component forced into [0,1] and edges
// reordered so X0 ≤ X1 and Y0 ≤ Y1.
func (r Rect) Clamp() Rect {
	c := Rect{
		X0: clamp01(r.X0),
		Y0: clamp01(r.Y0),
		X1: clamp01(r.X1),
		Y1: clamp01(r.Y1),
	}
	if c.X0 > c.X1 {
		c.X0, c.X1 = c.X1, c.X0
	}
	if c.Y0 > c.Y1 {
		c.Y0, c.Y1 = c.Y1, c.Y0
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Point is a position in normalized coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Block is a detected text region. Boxes are always stored normalized so
// downstream consumers are resolution independent.
type Block struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Box  Rect   `json:"box"`
}

// Size is a pixel dimension pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Canvas describes a display surface whose backing store (pixel size) may
// differ from its on-screen extent (display size), e.g. on high-DPI screens.
type Canvas struct {
	Pixel   Size `json:"pixel"`
	Display Size `json:"display"`
}

// NormalizeSourcePoint converts a source-frame pixel position into
// normalized space.
func NormalizeSourcePoint(x, y float64, source Size) Point {
	return Point{
		X: x / float64(source.Width),
		Y: y / float64(source.Height),
	}
}

// NormalizeDisplayPoint converts a pointer position in display (CSS) pixels
// into normalized space. The position is first scaled into the canvas's
// backing pixel space; skipping that scale is wrong whenever the pixel ratio
// is not 1:1.
func (c Canvas) NormalizeDisplayPoint(x, y float64) Point {
	px := x * float64(c.Pixel.Width) / float64(c.Display.Width)
	py := y * float64(c.Pixel.Height) / float64(c.Display.Height)
	return Point{
		X: px / float64(c.Pixel.Width),
		Y: py / float64(c.Pixel.Height),
	}
}

// ToCanvasRect converts a normalized rect into the canvas's backing pixel
// space, returned as float edges (x0, y0, x1, y1).
func (c Canvas) ToCanvasRect(r Rect) (x0, y0, x1, y1 float64) {
	w := float64(c.Pixel.Width)
	h := float64(c.Pixel.Height)
	return r.X0 * w, r.Y0 * h, r.X1 * w, r.Y1 * h
}

// ToSourcePoint converts a normalized point back into source-frame pixels.
func ToSourcePoint(p Point, source Size) (x, y float64) {
	return p.X * float64(source.Width), p.Y * float64(source.Height)
}
