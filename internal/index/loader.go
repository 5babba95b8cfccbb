package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/vector"
)

// Load reads the artifact at path. A missing file yields *MissingArtifactError. A file that
// cannot be decoded or fails validation is deleted and yields *CorruptArtifactError.
func Load(path string) (*vector.Artifact, error) {
	a, err := vector.ReadArtifact(path)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, &MissingArtifactError{Path: path}
	case errors.Is(err, vector.ErrInvalidArtifact):
		rmErr := os.Remove(path)
		return nil, &CorruptArtifactError{Path: path, Removed: rmErr == nil, Err: err}
	default:
		return nil, fmt.Errorf("read index artifact: %w", err)
	}
}

// CheckEncoder returns *ConfigMismatchError unless a was built by e.
func CheckEncoder(a *vector.Artifact, e embedding.Embedder) error {
	idDiffers := a.EncoderID != e.ID()
	dimDiffers := a.Len() > 0 && e.Dimensions() > 0 && a.Dim() != e.Dimensions()
	if idDiffers || dimDiffers {
		return &ConfigMismatchError{
			IndexEncoder: a.EncoderID,
			IndexDim:     a.Dim(),
			Encoder:      e.ID(),
			EncoderDim:   e.Dimensions(),
		}
	}
	return nil
}

// Handle publishes the artifact currently served. Readers call Current and keep using the
// returned artifact for the whole query; a concurrent Swap never mutates it.
type Handle struct {
	path     string
	embedder embedding.Embedder
	current  atomic.Pointer[vector.Artifact]
	logger   *zap.Logger
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithHandleLogger sets a logger for reload events.
func WithHandleLogger(l *zap.Logger) HandleOption {
	return func(h *Handle) { h.logger = l }
}

// NewHandle creates an empty handle for the artifact at path, checked against embedder.
func NewHandle(path string, embedder embedding.Embedder, opts ...HandleOption) *Handle {
	h := &Handle{path: path, embedder: embedder}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the artifact path this handle reloads from.
func (h *Handle) Path() string {
	return h.path
}

// Current returns the served artifact, or nil if none has been loaded.
func (h *Handle) Current() *vector.Artifact {
	return h.current.Load()
}

// Swap validates a against the invariants and the encoder, then publishes it.
// On error the previously served artifact stays in place.
func (h *Handle) Swap(a *vector.Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := CheckEncoder(a, h.embedder); err != nil {
		return err
	}
	h.current.Store(a)
	metrics.ArtifactPassages.Set(float64(a.Len()))
	return nil
}

// Reload loads the artifact from disk and swaps it in.
func (h *Handle) Reload() (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ArtifactReloadsTotal.WithLabelValues(status).Inc()
	}()

	a, err := Load(h.path)
	if err != nil {
		return err
	}
	if err := h.Swap(a); err != nil {
		return err
	}
	if h.logger != nil {
		h.logger.Info("index artifact loaded",
			zap.String("path", h.path),
			zap.String("encoder", a.EncoderID),
			zap.Int("passages", a.Len()),
			zap.Int("dimensions", a.Dim()),
			zap.String("build_id", a.Metadata.BuildID))
	}
	return nil
}
