package visualize

import (
	"strings"
	"testing"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
)

func TestCompileAndDraw(t *testing.T) {
	fn, err := CompileDrawScript(`ctx.fillStyle = "red"; ctx.fillRect(0, 0, 10, 10);`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	surface := NewSurface(32, 32)
	if err := fn(surface.Context(), 32, 32, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}

	img := surface.Snapshot()
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("expected red pixel at (5,5), got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	// Outside the rect stays untouched.
	if _, _, _, a := img.At(20, 20).RGBA(); a != 0 {
		t.Error("pixel outside fillRect should be untouched")
	}
}

func TestCompileFailure(t *testing.T) {
	_, err := CompileDrawScript(`this is not (valid javascript`)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeScriptCompile) {
		t.Errorf("expected script_compile error, got %v", err)
	}
}

func TestRuntimeThrowIsPerInvocation(t *testing.T) {
	fn, err := CompileDrawScript(`
		if (frameCount === 5) throw new Error("boom on frame 5");
		ctx.fillRect(frameCount, 0, 1, 1);
	`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	surface := NewSurface(16, 16)
	for frame := 0; frame < 8; frame++ {
		err := fn(surface.Context(), 16, 16, frame)
		if frame == 5 {
			if err == nil {
				t.Error("frame 5 should throw")
			} else if !strings.Contains(err.Error(), "boom on frame 5") {
				t.Errorf("unexpected error: %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("frame %d should succeed after the throw, got %v", frame, err)
		}
	}

	// Frame 6 really ran: its pixel is set.
	if _, _, _, a := surface.Snapshot().At(6, 0).RGBA(); a == 0 {
		t.Error("frame 6 did not draw after the frame-5 throw")
	}
}

func TestScriptUsesDrawArguments(t *testing.T) {
	fn, err := CompileDrawScript(`ctx.fillRect(0, 0, width, height);`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	surface := NewSurface(8, 8)
	if err := fn(surface.Context(), 8, 8, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if _, _, _, a := surface.Snapshot().At(7, 7).RGBA(); a == 0 {
		t.Error("full-canvas fill missed the far corner")
	}
}

func TestRunawayScriptIsInterrupted(t *testing.T) {
	fn, err := CompileDrawScript(`while (true) {}`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	surface := NewSurface(8, 8)
	if err := fn(surface.Context(), 8, 8, 0); err == nil {
		t.Fatal("expected interrupt error for runaway script")
	}

	// The sandbox recovers: a later invocation of a healthy path would need a
	// cleared interrupt, which the wrapper guarantees.
	fn2, err := CompileDrawScript(`ctx.fillRect(0,0,1,1);`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if err := fn2(surface.Context(), 8, 8, 0); err != nil {
		t.Errorf("fresh script should run after an interrupt, got %v", err)
	}
}
