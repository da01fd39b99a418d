package capture

import (
	"image"
	"image/draw"

	"github.com/Shocam7/WhichisViz/internal/detect"
)

// Preprocessor optionally cleans a frame up before detection. Output
// dimensions always equal input dimensions.
type Preprocessor struct {
	Grayscale       bool
	ContrastStretch bool
}

// Apply runs the enabled steps. With nothing enabled the frame passes
// through untouched.
func (p Preprocessor) Apply(frame detect.Frame) detect.Frame {
	if !p.Grayscale && !p.ContrastStretch {
		return frame
	}

	bounds := frame.Image.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, frame.Image, bounds.Min, draw.Src)

	if p.ContrastStretch {
		stretchContrast(gray)
	}

	if !p.Grayscale {
		// Contrast-only: fold the stretched luminance back into RGBA so the
		// frame keeps its color type for display purposes.
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, gray, bounds.Min, draw.Src)
		return detect.Frame{Image: rgba, Size: frame.Size}
	}

	return detect.Frame{Image: gray, Size: frame.Size}
}

// stretchContrast linearly remaps the luminance range onto [0,255] in place.
// A flat image (min == max) is left alone.
func stretchContrast(gray *image.Gray) {
	min, max := uint8(255), uint8(0)
	for _, v := range gray.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min >= max {
		return
	}
	scale := 255.0 / float64(max-min)
	for i, v := range gray.Pix {
		gray.Pix[i] = uint8(float64(v-min) * scale)
	}
}
