// Package collector fetches live text snippets for a query from web sources.
package collector

import (
	"context"
	"errors"
	"strings"
)

// ErrCollectorFailed is wrapped when no source produced snippets because of errors.
var ErrCollectorFailed = errors.New("snippet collection failed")

// Collector returns short text snippets relevant to query. Order is significant: it is
// preserved through ranking until the final score sort.
type Collector interface {
	Collect(ctx context.Context, query string) ([]string, error)
}

// Func adapts a function to Collector.
type Func func(ctx context.Context, query string) ([]string, error)

// Collect calls f.
func (f Func) Collect(ctx context.Context, query string) ([]string, error) {
	return f(ctx, query)
}

// Static always returns the same snippets. A nil Static collects nothing, which is how
// offline-only deployments disable the live branch.
type Static []string

// Collect returns a copy of the snippets.
func (s Static) Collect(context.Context, string) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// normalize trims snippets, drops empty and duplicate ones, and caps the result at max
// (no cap when max <= 0).
func normalize(snippets []string, max int) []string {
	seen := make(map[string]struct{}, len(snippets))
	out := make([]string, 0, len(snippets))
	for _, s := range snippets {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
