package selection

import (
	"testing"

	"github.com/Shocam7/WhichisViz/internal/geometry"
)

func blocks() []geometry.Block {
	return []geometry.Block{
		{ID: "a", Text: "Photosynthesis", Box: geometry.Rect{X0: 0.2, Y0: 0.1, X1: 0.6, Y1: 0.3}},
		{ID: "b", Text: "Mitochondria", Box: geometry.Rect{X0: 0.5, Y0: 0.2, X1: 0.9, Y1: 0.5}}, // overlaps a
		{ID: "c", Text: "Chloroplast", Box: geometry.Rect{X0: 0.1, Y0: 0.6, X1: 0.4, Y1: 0.9}},
	}
}

func TestHitTest(t *testing.T) {
	tests := []struct {
		name   string
		point  geometry.Point
		wantID string
		wantOK bool
	}{
		{"inside first block", geometry.Point{X: 0.4, Y: 0.2}, "a", true},
		{"inside only second", geometry.Point{X: 0.8, Y: 0.4}, "b", true},
		{"overlap picks result order", geometry.Point{X: 0.55, Y: 0.25}, "a", true},
		{"outside all", geometry.Point{X: 0.9, Y: 0.9}, "", false},
		{"on edge", geometry.Point{X: 0.2, Y: 0.1}, "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := HitTest(blocks(), tt.point)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && hit.ID != tt.wantID {
				t.Errorf("hit %q, want %q", hit.ID, tt.wantID)
			}
		})
	}
}

func TestToggleSelectsAndDeselects(t *testing.T) {
	e := NewEngine()
	bs := blocks()

	hit, selected, ok := e.Toggle(bs, geometry.Point{X: 0.4, Y: 0.2})
	if !ok || !selected || hit.ID != "a" {
		t.Fatalf("first toggle: hit=%v selected=%v ok=%v", hit.ID, selected, ok)
	}
	if !e.IsSelected("a") {
		t.Error("block a should be selected")
	}

	// Clicking an already-selected block deselects it.
	_, selected, ok = e.Toggle(bs, geometry.Point{X: 0.4, Y: 0.2})
	if !ok || selected {
		t.Fatalf("second toggle should deselect, selected=%v ok=%v", selected, ok)
	}
	if e.Count() != 0 {
		t.Errorf("expected empty selection, have %d", e.Count())
	}
}

func TestMissLeavesSelectionUnchanged(t *testing.T) {
	e := NewEngine()
	bs := blocks()
	e.Toggle(bs, geometry.Point{X: 0.4, Y: 0.2}) // select a
	e.Toggle(bs, geometry.Point{X: 0.2, Y: 0.7}) // select c

	_, _, ok := e.Toggle(bs, geometry.Point{X: 0.95, Y: 0.05})
	if ok {
		t.Fatal("expected a miss")
	}
	if e.Count() != 2 || !e.IsSelected("a") || !e.IsSelected("c") {
		t.Errorf("miss must not modify selection; have %d selected", e.Count())
	}
}

func TestSelectedTextInResultOrder(t *testing.T) {
	e := NewEngine()
	bs := blocks()
	// Select c first, then a: concatenation still follows result order.
	e.Toggle(bs, geometry.Point{X: 0.2, Y: 0.7})
	e.Toggle(bs, geometry.Point{X: 0.4, Y: 0.2})

	if got := e.SelectedText(bs); got != "Photosynthesis Chloroplast" {
		t.Errorf("SelectedText = %q", got)
	}
	ids := e.SelectedIDs(bs)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("SelectedIDs = %v", ids)
	}
}

func TestClear(t *testing.T) {
	e := NewEngine()
	bs := blocks()
	e.Toggle(bs, geometry.Point{X: 0.4, Y: 0.2})
	e.Clear()
	if e.Count() != 0 {
		t.Errorf("expected empty selection after clear, have %d", e.Count())
	}
	if got := e.SelectedText(bs); got != "" {
		t.Errorf("expected empty text after clear, got %q", got)
	}
}
