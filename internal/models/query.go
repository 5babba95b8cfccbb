package models

import (
	"errors"
	"strings"
)

const (
	// DefaultLimit is the number of merged results returned when a query sets no limit.
	DefaultLimit = 10
	// MaxLimit caps the number of merged results for any query.
	MaxLimit = 100
)

// ErrEmptyQuery is returned by Validate when the query text is blank.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a hybrid search request.
type SearchQuery struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit,omitempty"`
	OfflineEnabled bool   `json:"offline_enabled,omitempty"` // search the prebuilt index
	LiveEnabled    bool   `json:"live_enabled,omitempty"`    // collect and rank live snippets
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is blank; otherwise trims it, normalizes limit and
// enables both branches when neither was requested.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if !q.OfflineEnabled && !q.LiveEnabled {
		q.OfflineEnabled = true
		q.LiveEnabled = true
	}
	return nil
}
