package models

// Source tags where a scored result came from.
type Source string

const (
	SourceOffline Source = "offline"
	SourceLive    Source = "live"
)

// ScoredResult is a single passage with its similarity to the query.
// OriginIndex is the position of the passage in the offline corpus and is nil for live results.
type ScoredResult struct {
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	Source      Source  `json:"source"`
	OriginIndex *int    `json:"origin_index,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []ScoredResult `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
	Query     string         `json:"query"`
	// Degraded lists the branches ("local", "live") that failed or timed out and
	// contributed no results.
	Degraded []string `json:"degraded,omitempty"`
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
