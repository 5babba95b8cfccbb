// Package search ranks offline passages and live snippets and merges them into one answer.
package search

import (
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// Merge concatenates local then live results, sorts them by score descending and keeps the
// first k (all of them when k <= 0). The sort is stable, so equal scores keep local results
// ahead of live ones and each list's own order.
//
// Offline scores are inner products of normalized vectors and live scores are cosine
// similarities computed at query time. They share a range but are not calibrated against
// each other.
func Merge(local, live []models.ScoredResult, k int) []models.ScoredResult {
	merged := make([]models.ScoredResult, 0, len(local)+len(live))
	merged = append(merged, local...)
	merged = append(merged, live...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if k > 0 && len(merged) > k {
		merged = merged[:k]
	}
	return merged
}
