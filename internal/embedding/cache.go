package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/metrics"
)

// DefaultCacheSize is the number of embeddings kept in memory when no size is configured.
const DefaultCacheSize = 10000

// EmbeddingCache is an LRU cache for embeddings keyed by text.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](capacity)
	return &EmbeddingCache{cache: cache}
}

// Get returns the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	return c.cache.Get(key)
}

// Set stores the embedding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.cache.Add(key, value)
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// VectorStore persists embeddings across runs, keyed by encoder ID and text.
type VectorStore interface {
	GetMany(ctx context.Context, encoderID string, texts []string) (map[string][]float32, error)
	PutMany(ctx context.Context, encoderID string, texts []string, vectors [][]float32) error
}

// CachedEmbedder wraps an Embedder with an in-memory LRU and an optional persistent store,
// so repeated queries and unchanged corpus rows are not re-encoded.
type CachedEmbedder struct {
	inner  Embedder
	cache  *EmbeddingCache
	store  VectorStore
	logger *zap.Logger
}

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder)

// WithStore adds a persistent second cache tier.
func WithStore(store VectorStore) CacheOption {
	return func(c *CachedEmbedder) { c.store = store }
}

// WithCacheLogger sets the logger used to report store failures.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *CachedEmbedder) { c.logger = l }
}

// NewCachedEmbedder creates a cached embedder wrapping inner.
func NewCachedEmbedder(inner Embedder, cacheSize int, opts ...CacheOption) *CachedEmbedder {
	c := &CachedEmbedder{
		inner: inner,
		cache: NewEmbeddingCache(cacheSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cacheKey hashes text together with the encoder ID so two models never share entries.
func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ID()))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached embedding if available, otherwise computes and caches it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch resolves each text from memory, then the store, then the inner embedder.
// Output order matches texts.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("memory", "hit").Add(float64(len(texts) - len(missing)))
	metrics.EmbeddingCacheTotal.WithLabelValues("memory", "miss").Add(float64(len(missing)))
	if len(missing) == 0 {
		return results, nil
	}

	if c.store != nil {
		missing = c.fromStore(ctx, texts, missing, results)
		if len(missing) == 0 {
			return results, nil
		}
	}

	pending := make([]string, len(missing))
	for j, idx := range missing {
		pending[j] = texts[idx]
	}
	computed, err := c.inner.EmbedBatch(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(pending) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts: %w", len(computed), len(pending), ErrEncoding)
	}
	for j, vec := range computed {
		if err := CheckFinite(vec); err != nil {
			return nil, fmt.Errorf("text %d: %w", missing[j], err)
		}
	}
	for j, idx := range missing {
		results[idx] = computed[j]
		c.cache.Set(c.cacheKey(texts[idx]), computed[j])
	}

	if c.store != nil {
		if err := c.store.PutMany(ctx, c.inner.ID(), pending, computed); err != nil && c.logger != nil {
			c.logger.Warn("failed to persist embeddings", zap.Int("count", len(pending)), zap.Error(err))
		}
	}
	return results, nil
}

func (c *CachedEmbedder) fromStore(ctx context.Context, texts []string, missing []int, results [][]float32) []int {
	pending := make([]string, len(missing))
	for j, idx := range missing {
		pending[j] = texts[idx]
	}
	found, err := c.store.GetMany(ctx, c.inner.ID(), pending)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("embedding store lookup failed", zap.Error(err))
		}
		return missing
	}
	var still []int
	for _, idx := range missing {
		vec, ok := found[texts[idx]]
		if !ok || len(vec) != c.inner.Dimensions() || CheckFinite(vec) != nil {
			still = append(still, idx)
			continue
		}
		results[idx] = vec
		c.cache.Set(c.cacheKey(texts[idx]), vec)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("sqlite", "hit").Add(float64(len(missing) - len(still)))
	metrics.EmbeddingCacheTotal.WithLabelValues("sqlite", "miss").Add(float64(len(still)))
	return still
}

// Dimensions returns the embedding dimension (passthrough to inner).
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// ID returns the inner encoder ID; caching does not change the model identity.
func (c *CachedEmbedder) ID() string {
	return c.inner.ID()
}

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
