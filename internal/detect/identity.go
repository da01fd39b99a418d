package detect

import (
	"strings"

	"github.com/Shocam7/WhichisViz/internal/geometry"

	"github.com/arbovm/levenshtein"
)

// similarityThreshold is the minimum text similarity (1 - distance/maxLen)
// for two blocks to be considered the same region across rescans.
const similarityThreshold = 0.8

// ReassignIDs carries block IDs forward across consecutive continuous-mode
// rescans: a new block inherits the ID of a previous block whose text is
// near-identical and whose box overlaps it. OCR output jitters slightly
// between visually identical frames; without this, every rescan would
// invalidate the pointer targets the user is looking at. Each previous ID is
// reused at most once. The input order of next is preserved.
func ReassignIDs(prev, next []geometry.Block) []geometry.Block {
	if len(prev) == 0 || len(next) == 0 {
		return next
	}

	used := make(map[string]bool, len(prev))
	for i := range next {
		for _, old := range prev {
			if used[old.ID] {
				continue
			}
			if !next[i].Box.Intersects(old.Box) {
				continue
			}
			if textSimilarity(next[i].Text, old.Text) >= similarityThreshold {
				next[i].ID = old.ID
				used[old.ID] = true
				break
			}
		}
	}
	return next
}

// Churn measures how much the detected text changed between two results,
// 0 (identical) to 1 (entirely different). The capture loop logs it in
// continuous mode as a scan-stability signal.
func Churn(prev, next []geometry.Block) float64 {
	a := joinText(prev)
	b := joinText(next)
	if a == "" && b == "" {
		return 0
	}
	return 1 - textSimilarity(a, b)
}

func textSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.Distance(a, b))/float64(longest)
}

func joinText(blocks []geometry.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, " ")
}
