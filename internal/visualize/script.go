package visualize

import (
	"fmt"
	"time"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"

	"github.com/dop251/goja"
)

// tickBudget bounds a single draw invocation. A script stuck in a loop is
// interrupted instead of freezing the animation goroutine.
const tickBudget = 100 * time.Millisecond

// DrawFunc is the compiled per-frame routine. frameCount increments
// monotonically from 0. A returned error covers that invocation only;
// callers keep ticking.
type DrawFunc func(ctx *Context2D, width, height, frameCount int) error

// CompileDrawScript compiles plan script text once into a sandboxed
// DrawFunc. The script body runs inside an isolated interpreter with only
// the draw arguments in scope; there is no host access to revoke. A compile
// failure is final, so the caller must not start a frame loop.
//
// The returned DrawFunc is not safe for concurrent use; the animator is its
// only caller.
func CompileDrawScript(src string) (DrawFunc, error) {
	wrapped := fmt.Sprintf("(function(ctx, width, height, frameCount) {\n%s\n})", src)
	prog, err := goja.Compile("draw", wrapped, false)
	if err != nil {
		return nil, apperrors.NewScriptCompileError("plan script failed to compile", err)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	val, err := vm.RunProgram(prog)
	if err != nil {
		return nil, apperrors.NewScriptCompileError("plan script failed to evaluate", err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, apperrors.NewScriptCompileError("plan script did not produce a callable", nil)
	}

	return func(ctx *Context2D, width, height, frameCount int) error {
		timer := time.AfterFunc(tickBudget, func() {
			vm.Interrupt("draw tick exceeded time budget")
		})
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()

		_, err := fn(goja.Undefined(),
			vm.ToValue(ctx),
			vm.ToValue(width),
			vm.ToValue(height),
			vm.ToValue(frameCount),
		)
		return err
	}, nil
}
