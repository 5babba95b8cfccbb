package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kotae/internal/collector"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
)

// Branch names reported in SearchResponse.Degraded.
const (
	BranchLocal = "local"
	BranchLive  = "live"
)

// Engine answers a query from the offline index and live snippets concurrently.
type Engine struct {
	local     *LocalSearcher
	live      *LiveRanker
	collector *collector.TimeoutCollector
	config    *config.SearchConfig
	logger    *zap.Logger
}

// NewEngine creates a search engine. A nil local searcher disables the offline branch and a
// nil collector disables the live one. The collector runs under collectorTimeout.
func NewEngine(
	local *LocalSearcher,
	live *LiveRanker,
	c collector.Collector,
	cfg *config.SearchConfig,
	collectorTimeout time.Duration,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	e := &Engine{local: local, live: live, config: cfg, logger: logger}
	if c != nil && live != nil {
		e.collector = collector.WithTimeout(c, collectorTimeout, logger)
	}
	return e
}

// Search validates query, runs both branches and merges them. It fails only for an invalid
// query or a cancelled ctx; a failing branch contributes no results and is listed in
// Degraded.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		metrics.QueriesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var (
		localResults = []models.ScoredResult{}
		liveResults  = []models.ScoredResult{}
		localErr     error
		liveErr      error
		g            errgroup.Group
	)

	if query.OfflineEnabled && e.local != nil {
		g.Go(func() error {
			results, err := e.local.search(ctx, query.Query, e.localTopK())
			if err != nil {
				localErr = err
				return nil
			}
			localResults = results
			return nil
		})
	}

	if query.LiveEnabled && e.collector != nil {
		g.Go(func() error {
			collected := e.collector.Gather(ctx, query.Query)
			metrics.CollectedSnippets.Observe(float64(len(collected.Snippets)))
			if collected.Err != nil {
				liveErr = collected.Err
				return nil
			}
			if len(collected.Snippets) == 0 {
				return nil
			}
			results, err := e.live.rank(ctx, query.Query, collected.Snippets)
			if err != nil {
				liveErr = err
				return nil
			}
			liveResults = results
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		metrics.QueriesTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("search cancelled: %w", err)
	}

	var degraded []string
	if localErr != nil {
		degraded = append(degraded, BranchLocal)
		e.logger.Warn("local branch degraded", zap.String("query", query.Query), zap.Error(localErr))
	}
	if liveErr != nil {
		degraded = append(degraded, BranchLive)
		e.logger.Warn("live branch degraded", zap.String("query", query.Query), zap.Error(liveErr))
	}
	for _, branch := range degraded {
		metrics.BranchDegradedTotal.WithLabelValues(branch).Inc()
	}

	merged := Merge(localResults, liveResults, query.Limit)
	elapsed := time.Since(startTime)
	metrics.QueryDuration.Observe(elapsed.Seconds())
	if len(degraded) > 0 {
		metrics.QueriesTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
	}

	e.logger.Debug("search completed",
		zap.String("query", query.Query),
		zap.Int("local", len(localResults)),
		zap.Int("live", len(liveResults)),
		zap.Int("returned", len(merged)),
		zap.Duration("elapsed", elapsed))

	return &models.SearchResponse{
		Results:   merged,
		Total:     len(localResults) + len(liveResults),
		QueryTime: elapsed.Milliseconds(),
		Query:     query.Query,
		Degraded:  degraded,
	}, nil
}

func (e *Engine) localTopK() int {
	if e.config.LocalTopK > 0 {
		return e.config.LocalTopK
	}
	return DefaultLocalTopK
}
