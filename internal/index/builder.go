// Package index builds the offline vector index artifact from a corpus, loads it back with
// fail-fast validation, and publishes it to searchers through an atomically swapped handle.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Builder turns a corpus into a persisted artifact.
type Builder struct {
	embedder embedding.Embedder
	config   *config.IndexConfig
	logger   *zap.Logger // optional; when set, logs progress and results
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder that encodes passages with embedder.
func NewBuilder(embedder embedding.Embedder, cfg *config.IndexConfig, opts ...BuilderOption) *Builder {
	b := &Builder{
		embedder: embedder,
		config:   cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromDir locates the configured corpus in dataDir and builds it into outPath.
// A JSON corpus is also written back as CSV next to it when conversion is enabled, so later
// builds read the flat file.
func (b *Builder) BuildFromDir(ctx context.Context, dataDir, outPath string) (*vector.Artifact, error) {
	unlock, err := b.lock(outPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	src, err := corpus.Locate(dataDir, b.config.CorpusName)
	if err != nil {
		return nil, err
	}
	raw, err := corpus.Load(src, b.config.TextColumn)
	if err != nil {
		return nil, err
	}
	if src.Format == corpus.FormatSQuAD && b.config.ConvertJSONToCSVOrDefault() {
		csvPath := filepath.Join(dataDir, b.config.CorpusName+".csv")
		if err := corpus.WriteCSV(csvPath, b.config.TextColumn, raw); err != nil {
			b.warn("failed to convert JSON corpus to CSV", zap.String("path", csvPath), zap.Error(err))
		} else if b.logger != nil {
			b.logger.Info("converted JSON corpus to CSV", zap.String("path", csvPath), zap.Int("rows", len(raw)))
		}
	}
	return b.build(ctx, src, raw, outPath)
}

// Build reads src and writes its artifact to outPath.
func (b *Builder) Build(ctx context.Context, src corpus.Source, outPath string) (*vector.Artifact, error) {
	unlock, err := b.lock(outPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	raw, err := corpus.Load(src, b.config.TextColumn)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, src, raw, outPath)
}

func (b *Builder) build(ctx context.Context, src corpus.Source, raw []string, outPath string) (*vector.Artifact, error) {
	start := b.now()
	texts := corpus.Clean(raw)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%s: %w", src.Path, ErrEmptyCorpus)
	}
	if b.logger != nil {
		b.logger.Info("encoding passages",
			zap.String("source", src.Path),
			zap.Int("rows", len(raw)),
			zap.Int("unique", len(texts)),
			zap.String("encoder", b.embedder.ID()))
	}

	vectors, err := b.encode(ctx, texts)
	if err != nil {
		return nil, err
	}

	a := &vector.Artifact{
		EncoderID: b.embedder.ID(),
		Texts:     texts,
		Vectors:   vectors,
		Metadata: vector.Metadata{
			Source:     src.Name(),
			CreatedAt:  start.UTC(),
			Dimensions: [2]int{len(texts), len(vectors[0])},
			BuildID:    uuid.New().String(),
			Normalized: true,
		},
	}
	if err := vector.WriteArtifact(outPath, a); err != nil {
		return nil, fmt.Errorf("failed to write index artifact: %w", err)
	}
	if b.logger != nil {
		b.logger.Info("index artifact written",
			zap.String("path", outPath),
			zap.Float64("size_mb", float64(storage.FileSize(outPath))/1e6),
			zap.Ints("shape", a.Metadata.Dimensions[:]),
			zap.String("build_id", a.Metadata.BuildID),
			zap.Duration("elapsed", time.Since(start)))
	}
	return a, nil
}

// encode embeds texts in batches on a bounded worker pool. The result is index-aligned with
// texts and every vector is unit length.
func (b *Builder) encode(ctx context.Context, texts []string) ([][]float32, error) {
	workers := max(b.config.Workers, 1)
	batchSize := b.config.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		done     atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts) && ctx.Err() == nil; start += batchSize {
		end := min(start+batchSize, len(texts))
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			batch, err := b.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				fail(fmt.Errorf("failed to encode passages %d-%d: %w", start, end-1, err))
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("encoder returned %d vectors for %d passages: %w", len(batch), end-start, embedding.ErrEncoding))
				return
			}
			for i, v := range batch {
				vectors[start+i] = utils.NormalizedCopy(v)
			}
			n := done.Add(int64(end - start))
			if b.logger != nil {
				b.logger.Debug("encoded batch", zap.Int64("done", n), zap.Int("total", len(texts)))
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch: %w", err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("passage %d encoded to %d dimensions, expected %d: %w", i, len(v), dim, embedding.ErrEncoding)
		}
		if err := embedding.CheckFinite(v); err != nil {
			return nil, fmt.Errorf("passage %d: %w", i, err)
		}
	}
	return vectors, nil
}

// lock takes the cross-process build lock that sits next to the artifact.
func (b *Builder) lock(outPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	fl := flock.New(outPath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", fl.Path(), ErrBuildInProgress)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			b.warn("failed to release build lock", zap.Error(err))
		}
	}, nil
}

func (b *Builder) warn(msg string, fields ...zap.Field) {
	if b.logger != nil {
		b.logger.Warn(msg, fields...)
	}
}
