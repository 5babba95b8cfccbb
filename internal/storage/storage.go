// Package storage persists computed embeddings between builds and reports disk usage.
package storage

import "context"

// EmbeddingStore is a persistent embedding cache keyed by encoder ID and passage text.
type EmbeddingStore interface {
	GetMany(ctx context.Context, encoderID string, texts []string) (map[string][]float32, error)
	PutMany(ctx context.Context, encoderID string, texts []string, vectors [][]float32) error
	Count(ctx context.Context, encoderID string) (int64, error)
	Prune(ctx context.Context, keepEncoderID string) (int64, error)
	Close() error
}
