package embedding

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the encoder selected by cfg.Provider and wraps it in an LRU cache.
// store may be nil.
func New(cfg config.EmbeddingConfig, store VectorStore, logger *zap.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case config.ProviderONNX, "":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		base = e
	case config.ProviderOpenAI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		base = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case config.ProviderOllama:
		e, err := NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		base = e
	case config.ProviderMock:
		base = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	opts := []CacheOption{WithCacheLogger(logger)}
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	if logger != nil {
		logger.Info("embedder ready",
			zap.String("provider", cfg.Provider),
			zap.String("encoder", base.ID()),
			zap.Int("dimensions", base.Dimensions()))
	}
	return NewCachedEmbedder(base, cfg.CacheSize, opts...), nil
}
