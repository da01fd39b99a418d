// Package visualize turns selected text into a running visualization: a
// 2D script animation on a local surface, or a remotely rendered 3D asset
// held under a local handle.
package visualize

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/eventlog"
	"github.com/Shocam7/WhichisViz/internal/logger"

	"github.com/sirupsen/logrus"
)

// Visualization is one live visualization and the resources it exclusively
// owns: the animation loop for 2D, the asset handle for 3D. Teardown is
// atomic and idempotent.
type Visualization struct {
	plan     Plan
	animator *Animator
	asset    *Asset
	store    *AssetStore
	downOnce sync.Once
}

// Plan returns the immutable plan this visualization runs.
func (v *Visualization) Plan() Plan {
	return v.plan
}

// Asset returns the 3D asset handle, nil for 2D visualizations.
func (v *Visualization) Asset() *Asset {
	return v.asset
}

// FrameCount reports 2D animation progress, 0 for 3D.
func (v *Visualization) FrameCount() int {
	if v.animator == nil {
		return 0
	}
	return v.animator.FrameCount()
}

// Teardown stops the animation loop and releases the asset handle. Safe to
// call more than once.
func (v *Visualization) Teardown() {
	v.downOnce.Do(func() {
		if v.animator != nil {
			v.animator.Stop()
		}
		if v.asset != nil && v.store != nil {
			v.store.Release(v.asset.ID)
		}
	})
}

// Dispatcher decides 2D vs 3D per plan and owns strategy setup.
type Dispatcher struct {
	planner  Planner
	renderer *RendererClient
	assets   *AssetStore
	surface  *Surface
	fps      int
	log      *eventlog.Log
}

// NewDispatcher wires a visualization dispatcher.
func NewDispatcher(planner Planner, renderer *RendererClient, assets *AssetStore, surface *Surface, fps int, log *eventlog.Log) *Dispatcher {
	return &Dispatcher{
		planner:  planner,
		renderer: renderer,
		assets:   assets,
		surface:  surface,
		fps:      fps,
		log:      log,
	}
}

// Surface returns the 2D drawing surface.
func (d *Dispatcher) Surface() *Surface {
	return d.surface
}

// Renderer returns the 3D renderer client (for endpoint edits).
func (d *Dispatcher) Renderer() *RendererClient {
	return d.renderer
}

// Visualize plans the given selection text and starts the chosen strategy.
// The planner is consulted exactly once; any failure leaves no live
// resources behind and the caller's session state untouched.
func (d *Dispatcher) Visualize(ctx context.Context, text string) (*Visualization, error) {
	plan, err := d.planner.Plan(ctx, text)
	if err != nil {
		d.log.Error(fmt.Sprintf("Visualization planning failed: %v", err))
		return nil, err
	}

	logger.ForComponent("visualize").WithFields(logrus.Fields{
		"mode":      plan.Mode,
		"reasoning": plan.Reasoning,
	}).Info("Plan received")

	switch plan.Mode {
	case Mode2D:
		return d.start2D(plan)
	case Mode3D:
		return d.start3D(ctx, plan)
	default:
		return nil, apperrors.NewPlanningError(fmt.Sprintf("unsupported plan mode %q", plan.Mode), nil)
	}
}

func (d *Dispatcher) start2D(plan Plan) (*Visualization, error) {
	fn, err := CompileDrawScript(plan.Script)
	if err != nil {
		// The failure is shown on the surface itself; the frame loop never starts.
		d.renderErrorSurface(err)
		d.log.Error(fmt.Sprintf("2D script failed to compile: %v", err))
		return nil, err
	}

	animator := NewAnimator(d.surface, fn, d.fps)
	animator.Start()
	d.log.Success("2D visualization running")
	return &Visualization{plan: plan, animator: animator}, nil
}

func (d *Dispatcher) start3D(ctx context.Context, plan Plan) (*Visualization, error) {
	data, contentType, err := d.renderer.Fetch(ctx, plan.Script)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeRenderConfig) {
			d.log.Error("3D rendering is not configured; set a render endpoint and try again")
		} else {
			d.log.Error(fmt.Sprintf("3D asset fetch failed: %v", err))
		}
		return nil, err
	}

	asset := d.assets.Put(data, contentType)
	d.log.Success(fmt.Sprintf("3D asset ready (%d bytes) at %s", len(asset.Data), asset.URL()))
	return &Visualization{plan: plan, asset: asset, store: d.assets}, nil
}

// renderErrorSurface paints a visible failure banner on the 2D surface.
func (d *Dispatcher) renderErrorSurface(err error) {
	size := d.surface.Size()
	ctx := d.surface.Context()
	ctx.FillStyle = "#202020"
	ctx.FillRect(0, 0, float64(size.Width), float64(size.Height))
	ctx.FillStyle = "red"
	ctx.FillRect(0, 0, float64(size.Width), 28)
	ctx.FillStyle = "white"
	ctx.FillText("visualization script error", 8, 18)
	ctx.FillText(err.Error(), 8, 46)
}
