package visualize

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
	"sync"

	"github.com/Shocam7/WhichisViz/internal/geometry"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Surface is the drawing target a 2D visualization owns exclusively. The
// backing store (pixel size) can differ from the on-screen extent (display
// size); resize subscribers learn about display changes and must detach at
// teardown.
type Surface struct {
	mu     sync.Mutex
	img    *image.RGBA
	canvas geometry.Canvas
	nextID int
	subs   map[int]chan geometry.Size
}

// NewSurface creates a surface with equal pixel and display sizes.
func NewSurface(width, height int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		canvas: geometry.Canvas{
			Pixel:   geometry.Size{Width: width, Height: height},
			Display: geometry.Size{Width: width, Height: height},
		},
		subs: make(map[int]chan geometry.Size),
	}
}

// Canvas returns the surface's coordinate-space description.
func (s *Surface) Canvas() geometry.Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

// Context returns a fresh 2D drawing context. Every draw call takes the
// surface lock and targets the current backing image, so contexts stay valid
// across Resize and snapshots never observe a half-written frame.
func (s *Surface) Context() *Context2D {
	return &Context2D{s: s, FillStyle: "black", StrokeStyle: "black", LineWidth: 1}
}

// Size returns the backing-store pixel size.
func (s *Surface) Size() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.Pixel
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Resize sets a new display size. The backing store is rebuilt to match and
// subscribers are notified without blocking.
func (s *Surface) Resize(size geometry.Size) {
	s.mu.Lock()
	s.canvas.Display = size
	s.canvas.Pixel = size
	s.img = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	subs := make([]chan geometry.Size, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- size:
		default:
		}
	}
}

// SubscribeResize registers a resize listener. The returned detach function
// must be called at teardown; a listener left attached is a leak.
func (s *Surface) SubscribeResize() (<-chan geometry.Size, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan geometry.Size, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SubscriberCount reports attached resize listeners.
func (s *Surface) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Context2D is the drawing API handed to plan scripts. The exported names
// map to the script-visible lowercase ones (FillRect → fillRect). Draw calls
// mutate the backing store under the surface lock, one primitive at a time.
type Context2D struct {
	s           *Surface
	FillStyle   string
	StrokeStyle string
	LineWidth   float64
}

// draw runs fn against the current backing image under the surface lock.
func (c *Context2D) draw(fn func(img *image.RGBA)) {
	c.s.mu.Lock()
	fn(c.s.img)
	c.s.mu.Unlock()
}

// FillRect fills the axis-aligned rectangle with the current fill style.
func (c *Context2D) FillRect(x, y, w, h float64) {
	col := parseColor(c.FillStyle)
	c.draw(func(img *image.RGBA) {
		paintRect(img, x, y, w, h, col)
	})
}

// ClearRect resets the rectangle to transparent black.
func (c *Context2D) ClearRect(x, y, w, h float64) {
	c.draw(func(img *image.RGBA) {
		paintRect(img, x, y, w, h, color.RGBA{})
	})
}

// StrokeRect outlines the rectangle with the current stroke style.
func (c *Context2D) StrokeRect(x, y, w, h float64) {
	col := parseColor(c.StrokeStyle)
	lw := c.LineWidth
	if lw < 1 {
		lw = 1
	}
	c.draw(func(img *image.RGBA) {
		paintRect(img, x, y, w, lw, col)
		paintRect(img, x, y+h-lw, w, lw, col)
		paintRect(img, x, y, lw, h, col)
		paintRect(img, x+w-lw, y, lw, h, col)
	})
}

// FillCircle fills a circle centered at (x, y).
func (c *Context2D) FillCircle(x, y, radius float64) {
	col := parseColor(c.FillStyle)
	r2 := radius * radius
	minX, maxX := int(x-radius), int(x+radius)
	minY, maxY := int(y-radius), int(y+radius)
	c.draw(func(img *image.RGBA) {
		for py := minY; py <= maxY; py++ {
			for px := minX; px <= maxX; px++ {
				dx := float64(px) + 0.5 - x
				dy := float64(py) + 0.5 - y
				if dx*dx+dy*dy <= r2 {
					setPixel(img, px, py, col)
				}
			}
		}
	})
}

// FillText draws text at the baseline position with the current fill style.
func (c *Context2D) FillText(text string, x, y float64) {
	src := image.NewUniform(parseColor(c.FillStyle))
	c.draw(func(img *image.RGBA) {
		d := &font.Drawer{
			Dst:  img,
			Src:  src,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(x), int(y)),
		}
		d.DrawString(text)
	})
}

// Line draws a straight segment with the current stroke style.
func (c *Context2D) Line(x0, y0, x1, y1 float64) {
	col := parseColor(c.StrokeStyle)
	// Bresenham over integer pixels.
	ix0, iy0, ix1, iy1 := int(x0), int(y0), int(x1), int(y1)
	dx := abs(ix1 - ix0)
	dy := -abs(iy1 - iy0)
	sx, sy := 1, 1
	if ix0 > ix1 {
		sx = -1
	}
	if iy0 > iy1 {
		sy = -1
	}
	c.draw(func(img *image.RGBA) {
		err := dx + dy
		for {
			setPixel(img, ix0, iy0, col)
			if ix0 == ix1 && iy0 == iy1 {
				break
			}
			e2 := 2 * err
			if e2 >= dy {
				err += dy
				ix0 += sx
			}
			if e2 <= dx {
				err += dx
				iy0 += sy
			}
		}
	})
}

func paintRect(img *image.RGBA, x, y, w, h float64, col color.RGBA) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, image.NewUniform(col), image.Point{}, draw.Src)
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var namedColors = map[string]color.RGBA{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 128, 0, 255},
	"lime":    {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"orange":  {255, 165, 0, 255},
	"purple":  {128, 0, 128, 255},
	"gray":    {128, 128, 128, 255},
	"grey":    {128, 128, 128, 255},
}

// parseColor understands named colors, #rgb, #rrggbb and rgb()/rgba().
// Anything unrecognized falls back to black rather than failing the tick.
func parseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBColor(s)
	}
	return color.RGBA{A: 255}
}

func parseHexColor(hex string) color.RGBA {
	switch len(hex) {
	case 3:
		r := hexNibble(hex[0])
		g := hexNibble(hex[1])
		b := hexNibble(hex[2])
		return color.RGBA{r*16 + r, g*16 + g, b*16 + b, 255}
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{A: 255}
		}
		return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
	}
	return color.RGBA{A: 255}
}

func hexNibble(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	}
	return 0
}

func parseRGBColor(s string) color.RGBA {
	open := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if open < 0 || end < open {
		return color.RGBA{A: 255}
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) < 3 {
		return color.RGBA{A: 255}
	}
	channel := func(p string) uint8 {
		v, _ := strconv.Atoi(strings.TrimSpace(p))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	out := color.RGBA{channel(parts[0]), channel(parts[1]), channel(parts[2]), 255}
	if len(parts) >= 4 {
		a, _ := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if a < 0 {
			a = 0
		}
		if a > 1 {
			a = 1
		}
		out.A = uint8(a * 255)
	}
	return out
}
