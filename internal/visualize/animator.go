package visualize

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shocam7/WhichisViz/internal/logger"
)

// Animator drives a compiled draw routine against a surface, one invocation
// per tick, until Stop. It owns the surface's drawing context and one resize
// subscription for its lifetime.
type Animator struct {
	surface *Surface
	fn      DrawFunc
	period  time.Duration

	frame    atomic.Int64
	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAnimator prepares a frame loop at the given rate. It does not start it.
func NewAnimator(surface *Surface, fn DrawFunc, fps int) *Animator {
	if fps <= 0 {
		fps = 30
	}
	a := &Animator{
		surface: surface,
		fn:      fn,
		period:  time.Second / time.Duration(fps),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	a.frame.Store(-1)
	return a
}

// Start launches the tick loop. frameCount passes 0 on the first tick and
// increments monotonically. A failure inside one invocation is logged and
// the loop keeps going.
func (a *Animator) Start() {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	resize, detach := a.surface.SubscribeResize()

	go func() {
		defer close(a.done)
		defer detach()

		ticker := time.NewTicker(a.period)
		defer ticker.Stop()

		for {
			select {
			case <-a.stop:
				return
			case <-resize:
				// Surface rebuilt its backing store; nothing to do here, the
				// next tick picks up the new context and dimensions.
			case <-ticker.C:
				a.tick()
			}
		}
	}()
}

func (a *Animator) tick() {
	frame := int(a.frame.Add(1))
	size := a.surface.Size()
	ctx := a.surface.Context()

	defer func() {
		if r := recover(); r != nil {
			logger.ForComponent("visualize").WithField("frame", frame).
				WithField("panic", r).Error("Draw routine panicked")
		}
	}()

	if err := a.fn(ctx, size.Width, size.Height, frame); err != nil {
		logger.ForComponent("visualize").WithField("frame", frame).
			WithError(err).Error("Draw routine failed")
	}
}

// FrameCount returns the number of completed or started ticks.
func (a *Animator) FrameCount() int {
	return int(a.frame.Load()) + 1
}

// Stop cancels the pending tick and detaches the resize listener. It is
// idempotent and returns after the loop goroutine has exited.
func (a *Animator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	if a.started.Load() {
		<-a.done
	}
}
