package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/hyperjump/kotae/pkg/utils"
)

// OllamaEmbedder embeds text through a langchaingo embeddings client, by default a local
// Ollama server.
type OllamaEmbedder struct {
	inner      embeddings.Embedder
	model      string
	dimensions int
}

// NewOllamaEmbedder connects to an Ollama server. An empty serverURL uses the client default.
func NewOllamaEmbedder(serverURL, model string, dimensions int) (*OllamaEmbedder, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	inner, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}
	return NewLangchainEmbedder(inner, model, dimensions), nil
}

// NewLangchainEmbedder adapts any langchaingo embedder.
func NewLangchainEmbedder(inner embeddings.Embedder, model string, dimensions int) *OllamaEmbedder {
	return &OllamaEmbedder{inner: inner, model: model, dimensions: dimensions}
}

// Embed returns the unit-length embedding for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) (_ []float32, err error) {
	start := time.Now()
	defer func() { observe(ProviderLabelOllama, start, err) }()

	vec, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %v: %w", err, ErrEncoding)
	}
	if err := e.checkDims(vec); err != nil {
		return nil, err
	}
	return utils.NormalizedCopy(vec), nil
}

// EmbedBatch embeds texts with EmbedDocuments, preserving order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) (_ [][]float32, err error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	start := time.Now()
	defer func() { observe(ProviderLabelOllama, start, err) }()

	vecs, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %v: %w", err, ErrEncoding)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d vectors for %d texts: %w", len(vecs), len(texts), ErrEncoding)
	}
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		if err := e.checkDims(v); err != nil {
			return nil, err
		}
		out[i] = utils.NormalizedCopy(v)
	}
	return out, nil
}

func (e *OllamaEmbedder) checkDims(vec []float32) error {
	if e.dimensions > 0 && len(vec) != e.dimensions {
		return fmt.Errorf("embedding has %d dimensions, expected %d: %w", len(vec), e.dimensions, ErrEncoding)
	}
	return nil
}

// Dimensions returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// ID returns "ollama/<model>".
func (e *OllamaEmbedder) ID() string {
	return ProviderLabelOllama + "/" + e.model
}

// Close is a no-op.
func (e *OllamaEmbedder) Close() error {
	return nil
}
