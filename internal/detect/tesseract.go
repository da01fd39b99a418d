package detect

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/geometry"

	"github.com/google/uuid"
	"github.com/otiai10/gosseract/v2"
)

// TesseractDetector runs text recognition on-device through tesseract.
// The underlying client is not safe for concurrent use, so calls are
// serialized; the capture loop's single-flight guard means contention never
// actually happens.
type TesseractDetector struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

// NewTesseractDetector creates an on-device OCR detector for the given language.
func NewTesseractDetector(language string) (*TesseractDetector, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, apperrors.NewDeviceError("failed to configure OCR language", err)
		}
	}
	return &TesseractDetector{client: client}, nil
}

// Detect recognizes text lines and converts their pixel boxes into
// normalized space using the frame's own dimensions.
func (d *TesseractDetector) Detect(ctx context.Context, frame Frame) ([]geometry.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := frame.EncodePNG()
	if err != nil {
		return nil, apperrors.NewDetectionError("failed to encode frame", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, apperrors.NewDetectionError("detector is closed", nil)
	}

	if err := d.client.SetImageFromBytes(encoded); err != nil {
		return nil, apperrors.NewDetectionError("failed to load frame into OCR engine", err)
	}

	boxes, err := d.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, apperrors.NewDetectionError("OCR recognition failed", err)
	}

	w := float64(frame.Size.Width)
	h := float64(frame.Size.Height)
	blocks := make([]geometry.Block, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		rect := geometry.Rect{
			X0: float64(box.Box.Min.X) / w,
			Y0: float64(box.Box.Min.Y) / h,
			X1: float64(box.Box.Max.X) / w,
			Y1: float64(box.Box.Max.Y) / h,
		}.Clamp()
		blocks = append(blocks, geometry.Block{
			ID:   uuid.NewString(),
			Text: text,
			Box:  rect,
		})
	}
	return blocks, nil
}

// Name identifies the backend in logs.
func (d *TesseractDetector) Name() string {
	return "tesseract"
}

// Close releases the OCR engine.
func (d *TesseractDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.client.Close()
}
