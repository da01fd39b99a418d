// Package capture owns the frame-source lifecycle and the scan loop that
// feeds frames to the text detector. At most one detection call is ever
// outstanding; triggers arriving while one is in flight are dropped, never
// queued. Results from a superseded session are discarded.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shocam7/WhichisViz/internal/detect"
	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/eventlog"
	"github.com/Shocam7/WhichisViz/internal/geometry"
	"github.com/Shocam7/WhichisViz/internal/logger"

	"github.com/sirupsen/logrus"
)

// Loop drives the scan → detect half of the pipeline. It has two operating
// modes: continuous (timer-driven rescans of the live feed) and
// capture-then-freeze (one detection against a frozen frame, stable until
// retake).
type Loop struct {
	source   FrameSource
	detector detect.Detector
	pre      Preprocessor
	log      *eventlog.Log
	interval time.Duration

	mu         sync.Mutex
	scanning   bool
	inFlight   bool
	degraded   bool
	generation uint64
	frozen     *detect.Frame
	blocks     []geometry.Block

	closeOnce sync.Once
}

// NewLoop wires a capture loop. The loop takes exclusive ownership of the
// frame source and releases it on Close.
func NewLoop(source FrameSource, detector detect.Detector, pre Preprocessor, log *eventlog.Log, interval time.Duration) *Loop {
	return &Loop{
		source:   source,
		detector: detector,
		pre:      pre,
		log:      log,
		interval: interval,
	}
}

// Run ticks the continuous mode until ctx is cancelled. Detection runs
// inside the tick, so a slow call naturally throttles further ticks.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	logger.ForComponent("capture").WithField("interval", l.interval).Info("Capture loop started")
	for {
		select {
		case <-ctx.Done():
			logger.ForComponent("capture").Info("Capture loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick snapshots the live feed and runs one detection, unless the slot is
// busy, scanning is off, a frozen session is active, or the device has failed.
func (l *Loop) tick(ctx context.Context) {
	l.mu.Lock()
	if !l.scanning || l.inFlight || l.frozen != nil || l.degraded {
		l.mu.Unlock()
		return
	}
	l.inFlight = true
	gen := l.generation
	l.mu.Unlock()

	frame, err := l.source.Frame()
	if err != nil {
		l.markDegraded(err)
		return
	}

	l.detectAndApply(ctx, frame, gen, true)
}

// Capture freezes the current frame and runs exactly one detection against
// it. A second capture while one is pending is rejected, never queued.
func (l *Loop) Capture(ctx context.Context) ([]geometry.Block, error) {
	l.mu.Lock()
	if l.degraded {
		l.mu.Unlock()
		return nil, apperrors.NewDeviceError("capture device unavailable", nil)
	}
	if l.inFlight {
		l.mu.Unlock()
		return nil, apperrors.NewStateError("a detection call is already in flight")
	}
	if l.frozen != nil {
		l.mu.Unlock()
		return nil, apperrors.NewStateError("a captured session is already active; retake first")
	}
	l.inFlight = true
	gen := l.generation
	l.mu.Unlock()

	frame, err := l.source.Frame()
	if err != nil {
		l.markDegraded(err)
		return nil, err
	}

	l.mu.Lock()
	l.frozen = &frame
	l.mu.Unlock()
	l.log.Info("Frame captured, scanning for text")

	if err := l.detectAndApply(ctx, frame, gen, false); err != nil {
		return nil, err
	}
	return l.Blocks(), nil
}

// detectAndApply runs the detector on the (preprocessed) frame and installs
// the result, unless the originating session has been superseded. The
// in-flight slot is released in all paths. On failure or malformed response
// the displayed block list is cleared; that policy is applied here and
// nowhere else.
func (l *Loop) detectAndApply(ctx context.Context, frame detect.Frame, gen uint64, continuous bool) error {
	blocks, err := l.detector.Detect(ctx, l.pre.Apply(frame))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false

	if l.generation != gen {
		logger.ForComponent("capture").WithFields(logrus.Fields{
			"generation": gen,
			"current":    l.generation,
		}).Debug("Discarding stale detection result")
		return nil
	}

	if err != nil {
		l.blocks = nil
		if apperrors.IsType(err, apperrors.ErrorTypeMalformedResponse) {
			l.log.Error("Detection returned an unreadable response; treating as no text")
			return nil
		}
		l.log.Error(fmt.Sprintf("Text detection failed: %v", err))
		if continuous {
			return nil
		}
		return err
	}

	if continuous && len(l.blocks) > 0 {
		logger.ForComponent("capture").WithFields(logrus.Fields{
			"churn":  detect.Churn(l.blocks, blocks),
			"blocks": len(blocks),
		}).Debug("Scan completed")
	}

	l.blocks = detect.ReassignIDs(l.blocks, blocks)
	if len(blocks) == 0 {
		l.log.Info("No text found in frame")
	} else {
		l.log.Success(fmt.Sprintf("Detected %d text block(s)", len(blocks)))
	}
	return nil
}

// markDegraded records a fatal device failure: logged once, no auto-retry,
// the loop keeps running but every subsequent trigger is a no-op.
func (l *Loop) markDegraded(err error) {
	l.mu.Lock()
	already := l.degraded
	l.degraded = true
	l.inFlight = false
	l.mu.Unlock()

	if !already {
		l.log.Error(fmt.Sprintf("Capture device failed, entering degraded state: %v", err))
		logger.ForComponent("capture").WithError(err).Error("Frame source failure")
	}
}

// Reset discards the frozen frame and block list and supersedes any
// in-flight detection. Used for both retake and full session reset.
func (l *Loop) Reset() {
	l.mu.Lock()
	l.generation++
	l.frozen = nil
	l.blocks = nil
	l.mu.Unlock()
}

// SetScanning enables or disables continuous-mode ticks.
func (l *Loop) SetScanning(enabled bool) {
	l.mu.Lock()
	l.scanning = enabled
	l.mu.Unlock()
}

// Scanning reports whether continuous ticks are enabled.
func (l *Loop) Scanning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scanning
}

// Degraded reports whether the frame source has failed.
func (l *Loop) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

// Frozen returns the frozen frame of the active captured session, if any.
func (l *Loop) Frozen() (detect.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen == nil {
		return detect.Frame{}, false
	}
	return *l.frozen, true
}

// Blocks returns a snapshot of the currently displayed block list.
func (l *Loop) Blocks() []geometry.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]geometry.Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// Close releases the frame source exactly once.
func (l *Loop) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.source.Close()
	})
	return err
}
