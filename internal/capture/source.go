package capture

import (
	"fmt"
	"sync"

	"github.com/Shocam7/WhichisViz/internal/detect"
	apperrors "github.com/Shocam7/WhichisViz/internal/errors"

	"github.com/kbinani/screenshot"
)

// FrameSource is the camera capability: grab one frame of the live feed.
// The capture loop owns the source exclusively and releases it exactly once.
type FrameSource interface {
	Frame() (detect.Frame, error)
	Close() error
}

// ScreenSource captures frames from one attached display.
type ScreenSource struct {
	display   int
	closeOnce sync.Once
}

// NewScreenSource opens the display with the given index as a frame source.
func NewScreenSource(display int) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, apperrors.NewDeviceError("no active displays found", nil)
	}
	if display < 0 || display >= n {
		return nil, apperrors.NewDeviceError(
			fmt.Sprintf("display %d out of range (have %d)", display, n), nil)
	}
	return &ScreenSource{display: display}, nil
}

// Frame grabs a snapshot of the display.
func (s *ScreenSource) Frame() (detect.Frame, error) {
	bounds := screenshot.GetDisplayBounds(s.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return detect.Frame{}, apperrors.NewDeviceError("screen capture failed", err)
	}
	return detect.NewFrame(img), nil
}

// Close releases the source. Screen capture holds no persistent handle, but
// the release contract is the same as for camera devices.
func (s *ScreenSource) Close() error {
	s.closeOnce.Do(func() {})
	return nil
}
