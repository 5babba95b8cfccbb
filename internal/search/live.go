package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// LiveRanker scores collected snippets against the query by cosine similarity.
type LiveRanker struct {
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewLiveRanker creates a ranker that encodes with embedder.
func NewLiveRanker(embedder embedding.Embedder, logger *zap.Logger) *LiveRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveRanker{embedder: embedder, logger: logger}
}

// Rank returns one live result per snippet, in input order. An empty input returns an
// empty slice without touching the encoder; an encoding failure is logged and also yields
// an empty slice.
func (r *LiveRanker) Rank(ctx context.Context, query string, snippets []string) []models.ScoredResult {
	if len(snippets) == 0 {
		return []models.ScoredResult{}
	}
	results, err := r.rank(ctx, query, snippets)
	if err != nil {
		r.logger.Warn("live ranking failed", zap.Int("snippets", len(snippets)), zap.Error(err))
		return []models.ScoredResult{}
	}
	return results
}

func (r *LiveRanker) rank(ctx context.Context, query string, snippets []string) ([]models.ScoredResult, error) {
	vecs, err := r.embedder.EmbedBatch(ctx, snippets)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(snippets) {
		return nil, fmt.Errorf("%w: got %d vectors for %d snippets", embedding.ErrEncoding, len(vecs), len(snippets))
	}
	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := embedding.CheckFinite(q); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	out := make([]models.ScoredResult, len(snippets))
	for i, text := range snippets {
		if len(vecs[i]) != len(q) {
			return nil, fmt.Errorf("%w: snippet %d has dim %d, query has %d", vector.ErrDimensionMismatch, i, len(vecs[i]), len(q))
		}
		if err := embedding.CheckFinite(vecs[i]); err != nil {
			return nil, fmt.Errorf("snippet %d: %w", i, err)
		}
		out[i] = models.ScoredResult{
			Text:   text,
			Score:  vector.Cosine(q, vecs[i]),
			Source: models.SourceLive,
		}
	}
	return out, nil
}
