package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/kotae/internal/vector"
)

// fixedEmbedder maps known texts to fixed vectors and counts calls.
type fixedEmbedder struct {
	vectors map[string][]float32
	dim     int
	fail    error
	calls   atomic.Int32
}

func newFixedEmbedder(dim int, vectors map[string][]float32) *fixedEmbedder {
	return &fixedEmbedder{vectors: vectors, dim: dim}
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.fail != nil {
		return nil, f.fail
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return append([]float32(nil), v...), nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return f.dim }
func (f *fixedEmbedder) ID() string      { return "fixed" }
func (f *fixedEmbedder) Close() error    { return nil }

type staticSource struct{ a *vector.Artifact }

func (s staticSource) Current() *vector.Artifact { return s.a }

var errEncoderDown = errors.New("encoder down")

// fixture: three passages in 3 dimensions; the query "q" points along x.
func fixture() (*fixedEmbedder, *vector.Artifact) {
	emb := newFixedEmbedder(3, map[string][]float32{
		"q":            {1, 0, 0},
		"alpha":        {1, 0, 0},
		"beta":         {0, 1, 0},
		"gamma":        {0.6, 0.8, 0},
		"live close":   {0.8, 0.6, 0},
		"live far":     {0, 0, 2},
		"live partial": {3, 0, 4},
	})
	a := &vector.Artifact{
		EncoderID: "fixed",
		Texts:     []string{"alpha", "beta", "gamma"},
		Vectors:   [][]float32{{1, 0, 0}, {0, 1, 0}, {0.6, 0.8, 0}},
	}
	a.Metadata.Dimensions = [2]int{3, 3}
	return emb, a
}
