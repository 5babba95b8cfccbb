package vector

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a query vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorResult is a single search hit: the passage position in the artifact and its score.
type VectorResult struct {
	Index int
	Score float64 // inner product; cosine similarity for normalized vectors
}

// FlatIndex is brute-force inner product search over an artifact's vectors.
// It is read-only and safe for concurrent use.
type FlatIndex struct {
	artifact *Artifact
}

// NewFlatIndex wraps a validated artifact for searching.
func NewFlatIndex(a *Artifact) *FlatIndex {
	return &FlatIndex{artifact: a}
}

// Size returns the number of indexed vectors.
func (f *FlatIndex) Size() int {
	return len(f.artifact.Vectors)
}

// Search scores every stored vector against query and returns the k best, ordered by score
// descending with ties broken by lower index. Cost is O(n·d) to score plus O(n log k) to select.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}
	vectors := f.artifact.Vectors
	if len(vectors) == 0 {
		return nil, nil
	}
	if d := f.artifact.Dim(); len(query) != d {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), d)
	}

	h := make(minHeap, 0, min(k, len(vectors)))
	for i, vec := range vectors {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hit := VectorResult{Index: i, Score: InnerProduct(query, vec)}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		// Rows arrive in index order, so an equal score never displaces an earlier row.
		if hit.Score > h[0].Score {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	out := make([]VectorResult, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(VectorResult)
	}
	return out, nil
}

// minHeap keeps the worst retained hit at the root: lowest score, then highest index.
type minHeap []VectorResult

func (h minHeap) Len() int { return len(h) }

func (h minHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}

func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(VectorResult)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
