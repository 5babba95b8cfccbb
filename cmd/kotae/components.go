package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/collector"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Store    *storage.SQLiteStore
	Embedder embedding.Embedder
	Index    *index.Handle
	Engine   *search.Engine
}

// Close releases the embedder and the embedding store.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// newEmbedder opens the persistent embedding cache (when configured) and the encoder.
func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, *storage.SQLiteStore, error) {
	var (
		store    *storage.SQLiteStore
		vecStore embedding.VectorStore
	)
	if cfg.Storage.EmbeddingCachePath != "" {
		s, err := storage.NewSQLiteStore(cfg.Storage.EmbeddingCachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		store, vecStore = s, s
	}
	embedder, err := embedding.New(cfg.Embedding, vecStore, logger)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return embedder, store, nil
}

// initializeComponents wires the query path. A missing artifact is an error unless
// search.allow_missing_index is set; a corrupt or mismatched artifact is always an error.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, store, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Components{Store: store, Embedder: embedder}

	c.Index = index.NewHandle(cfg.Storage.ArtifactPath, embedder, index.WithHandleLogger(logger))
	if err := c.Index.Reload(); err != nil {
		if !errors.Is(err, index.ErrMissingArtifact) || !cfg.Search.AllowMissingIndex {
			c.Close()
			return nil, err
		}
		logger.Warn("serving without offline index", zap.String("path", cfg.Storage.ArtifactPath), zap.Error(err))
	}

	var coll collector.Collector
	if cfg.Collector.EnabledOrDefault() {
		coll = collector.NewHTTPCollector(cfg.Collector, collector.WithLogger(logger))
	}
	c.Engine = search.NewEngine(
		search.NewLocalSearcher(c.Index, embedder, logger),
		search.NewLiveRanker(embedder, logger),
		coll,
		&cfg.Search,
		cfg.Collector.Timeout(),
		logger,
	)
	return c, nil
}
