package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a live collection when none is configured.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of a bounded collection. Snippets is never nil; Err is set when the
// collection timed out, was cancelled or failed, in which case Snippets is empty.
type Result struct {
	Snippets []string
	Err      error
}

// Degraded reports whether the collection failed.
func (r Result) Degraded() bool {
	return r.Err != nil
}

// TimeoutCollector runs another collector under a deadline and turns every failure into an
// empty result.
type TimeoutCollector struct {
	inner   Collector
	timeout time.Duration
	logger  *zap.Logger
}

// WithTimeout wraps c with deadline d (DefaultTimeout when d <= 0).
func WithTimeout(c Collector, d time.Duration, logger *zap.Logger) *TimeoutCollector {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &TimeoutCollector{inner: c, timeout: d, logger: logger}
}

// Gather collects snippets, returning an empty, degraded result on timeout, cancellation or error.
func (t *TimeoutCollector) Gather(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		snippets []string
		err      error
	}
	// Buffered so a collector that ignores ctx cannot block after we give up on it.
	done := make(chan outcome, 1)
	go func() {
		snippets, err := t.inner.Collect(ctx, query)
		done <- outcome{snippets, err}
	}()

	var err error
	select {
	case o := <-done:
		if o.err == nil {
			return Result{Snippets: nonNil(o.snippets)}
		}
		err = o.err
	case <-ctx.Done():
		err = ctx.Err()
	}

	if !errors.Is(err, ErrCollectorFailed) {
		err = fmt.Errorf("%w: %w", ErrCollectorFailed, err)
	}
	if t.logger != nil {
		t.logger.Warn("live collection degraded to zero snippets",
			zap.String("query", query),
			zap.Duration("timeout", t.timeout),
			zap.Error(err))
	}
	return Result{Snippets: []string{}, Err: err}
}

// Collect implements Collector; it never returns an error.
func (t *TimeoutCollector) Collect(ctx context.Context, query string) ([]string, error) {
	return t.Gather(ctx, query).Snippets, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
