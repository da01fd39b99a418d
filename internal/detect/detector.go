// Package detect implements the text-detection capability: submit one frame,
// receive an ordered list of text blocks normalized to [0,1]. The two
// backends (remote vision model, on-device OCR) are interchangeable behind
// the Detector interface; callers never branch on which is active.
package detect

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/Shocam7/WhichisViz/internal/geometry"
)

// Frame is one snapshot handed to a detector. It is ephemeral: produced by
// the capture loop, consumed once.
type Frame struct {
	Image image.Image
	Size  geometry.Size
}

// NewFrame wraps an image with its pixel dimensions.
func NewFrame(img image.Image) Frame {
	b := img.Bounds()
	return Frame{
		Image: img,
		Size:  geometry.Size{Width: b.Dx(), Height: b.Dy()},
	}
}

// EncodePNG renders the frame for transport to a remote backend.
func (f Frame) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Detector is the polymorphic text-detection capability.
type Detector interface {
	// Detect submits one frame and returns detected blocks in the backend's
	// reading order, with boxes already normalized to [0,1].
	Detect(ctx context.Context, frame Frame) ([]geometry.Block, error)

	// Name identifies the backend in logs.
	Name() string

	// Close releases backend resources.
	Close() error
}
