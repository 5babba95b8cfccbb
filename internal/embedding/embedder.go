// Package embedding provides text encoders (ONNX, OpenAI-compatible, Ollama) and caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hyperjump/kotae/internal/metrics"
)

// ErrEncoding is wrapped by every encoder failure.
var ErrEncoding = errors.New("embedding failed")

// Embedder produces vector embeddings for text.
// ID identifies the model so that an index built by one encoder is never queried by another.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ID() string
	Close() error
}

// CheckFinite reports a NaN or infinite component of v as an ErrEncoding failure.
func CheckFinite(v []float32) error {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("component %d is %v: %w", i, f, ErrEncoding)
		}
	}
	return nil
}

func observe(provider string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, status).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
