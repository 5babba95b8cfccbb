package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// DefaultLocalTopK is how many offline passages a query asks for when unconfigured.
const DefaultLocalTopK = 5

var errNoArtifact = errors.New("no index artifact loaded")

// ArtifactSource yields the artifact to search. index.Handle satisfies it.
type ArtifactSource interface {
	Current() *vector.Artifact
}

// LocalSearcher ranks offline passages by inner product with the encoded query.
type LocalSearcher struct {
	source   ArtifactSource
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewLocalSearcher creates a searcher over source's current artifact.
func NewLocalSearcher(source ArtifactSource, embedder embedding.Embedder, logger *zap.Logger) *LocalSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSearcher{source: source, embedder: embedder, logger: logger}
}

// Search returns up to k offline results, best first. Failures are logged and yield an
// empty slice.
func (s *LocalSearcher) Search(ctx context.Context, query string, k int) []models.ScoredResult {
	results, err := s.search(ctx, query, k)
	if err != nil {
		s.logger.Warn("local search returned no results", zap.String("query", query), zap.Int("k", k), zap.Error(err))
		return []models.ScoredResult{}
	}
	return results
}

func (s *LocalSearcher) search(ctx context.Context, query string, k int) ([]models.ScoredResult, error) {
	artifact := s.source.Current()
	if artifact == nil {
		return nil, errNoArtifact
	}
	if artifact.Len() == 0 {
		return []models.ScoredResult{}, nil
	}
	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := embedding.CheckFinite(q); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	hits, err := vector.NewFlatIndex(artifact).Search(ctx, utils.NormalizedCopy(q), k)
	if err != nil {
		return nil, err
	}
	out := make([]models.ScoredResult, len(hits))
	for i, h := range hits {
		out[i] = models.ScoredResult{
			Text:        artifact.Texts[h.Index],
			Score:       h.Score,
			Source:      models.SourceOffline,
			OriginIndex: models.IntPtr(h.Index),
		}
	}
	return out, nil
}
