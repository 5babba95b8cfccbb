package search

import (
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

// ProcessQuery validates the search query and applies the configured limits.
// The configured maximum can lower models.MaxLimit but never raise it.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	requested := query.Limit
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	if requested <= 0 && cfg.DefaultLimit > 0 {
		query.Limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
		query.Limit = cfg.MaxLimit
	}
	if query.Limit > models.MaxLimit {
		query.Limit = models.MaxLimit
	}
	return nil
}
