// Package selection maintains the set of chosen blocks and resolves pointer
// positions against the current block list.
package selection

import (
	"strings"
	"sync"

	"github.com/Shocam7/WhichisViz/internal/geometry"
)

// Engine holds selection state for one capture session. It is the only
// mutator of the selection; the session clears it on retake/reset.
type Engine struct {
	mu       sync.Mutex
	selected map[string]bool
}

// NewEngine creates an empty selection.
func NewEngine() *Engine {
	return &Engine{selected: make(map[string]bool)}
}

// HitTest returns the first block in detection-result order whose box
// contains the normalized point. Overlaps resolve to the earlier block.
func HitTest(blocks []geometry.Block, p geometry.Point) (geometry.Block, bool) {
	for _, b := range blocks {
		if b.Box.Contains(p) {
			return b, true
		}
	}
	return geometry.Block{}, false
}

// Toggle hit-tests the point and flips the matched block's membership.
// A point under no block leaves the selection unchanged; a miss is never an
// implicit deselect-all. Returns the matched block and whether it is now
// selected.
func (e *Engine) Toggle(blocks []geometry.Block, p geometry.Point) (geometry.Block, bool, bool) {
	hit, ok := HitTest(blocks, p)
	if !ok {
		return geometry.Block{}, false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected[hit.ID] {
		delete(e.selected, hit.ID)
		return hit, false, true
	}
	e.selected[hit.ID] = true
	return hit, true, true
}

// IsSelected reports membership.
func (e *Engine) IsSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected[id]
}

// Count returns the number of selected blocks.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.selected)
}

// SelectedIDs returns the selected IDs ordered by detection-result order of
// the given block list.
func (e *Engine) SelectedIDs(blocks []geometry.Block) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.selected))
	for _, b := range blocks {
		if e.selected[b.ID] {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// SelectedText concatenates the text of the selected blocks in
// detection-result order, space separated. This is the dispatcher's input.
func (e *Engine) SelectedText(blocks []geometry.Block) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	parts := make([]string, 0, len(e.selected))
	for _, b := range blocks {
		if e.selected[b.ID] {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Clear empties the selection.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.selected = make(map[string]bool)
	e.mu.Unlock()
}
