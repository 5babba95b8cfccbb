package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kotae/internal/config"
)

// maxBodyBytes caps how much of a source response is read.
const maxBodyBytes = 2 << 20

// HTTPCollector queries every configured source concurrently and merges their snippets in
// source order. A failing source is logged and skipped.
type HTTPCollector struct {
	client      *http.Client
	sources     []config.CollectorSource
	maxSnippets int
	userAgent   string
	logger      *zap.Logger
}

// Option configures an HTTPCollector.
type Option func(*HTTPCollector)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPCollector) { h.client = c }
}

// WithLogger sets a logger for per-source failures.
func WithLogger(l *zap.Logger) Option {
	return func(h *HTTPCollector) { h.logger = l }
}

// NewHTTPCollector creates a collector for cfg.Sources.
func NewHTTPCollector(cfg config.CollectorConfig, opts ...Option) *HTTPCollector {
	h := &HTTPCollector{
		client:      &http.Client{Timeout: 30 * time.Second},
		sources:     cfg.Sources,
		maxSnippets: cfg.MaxSnippets,
		userAgent:   cfg.UserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Collect fetches all sources. It errors only when every source failed or ctx ended.
func (h *HTTPCollector) Collect(ctx context.Context, query string) ([]string, error) {
	if len(h.sources) == 0 {
		return []string{}, nil
	}
	perSource := make([][]string, len(h.sources))
	errs := make([]error, len(h.sources))

	var g errgroup.Group
	for i, src := range h.sources {
		g.Go(func() error {
			snippets, err := h.fetch(ctx, src, query)
			if err != nil {
				errs[i] = fmt.Errorf("source %s: %w", src.Name, err)
				if h.logger != nil {
					h.logger.Warn("collector source failed", zap.String("source", src.Name), zap.Error(err))
				}
				return nil
			}
			perSource[i] = snippets
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCollectorFailed, err)
	}
	failed := 0
	var all []string
	for i := range h.sources {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, perSource[i]...)
	}
	if failed == len(h.sources) {
		return nil, fmt.Errorf("%w: %w", ErrCollectorFailed, errors.Join(errs...))
	}
	return normalize(all, h.maxSnippets), nil
}

func (h *HTTPCollector) fetch(ctx context.Context, src config.CollectorSource, query string) ([]string, error) {
	target := strings.ReplaceAll(src.URL, "{query}", url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body := io.LimitReader(resp.Body, maxBodyBytes)

	switch src.Format {
	case config.SourceFormatWikipedia:
		return parseWikipedia(body)
	case config.SourceFormatHTML:
		return extractParagraphs(body, minParagraphRunes), nil
	default:
		return nil, fmt.Errorf("unknown source format %q", src.Format)
	}
}
