// Package cli provides output helpers for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for i, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", i+1, r.Score, r.Source, TruncateWords(r.Text, 20))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%d candidates)\n", len(response.Results), response.QueryTime, response.Total)
	if len(response.Degraded) > 0 {
		fmt.Fprintf(w, "Degraded branches: %s\n", strings.Join(response.Degraded, ", "))
	}
	fmt.Fprintln(w)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] Rank: %d | Score: %.4f", result.Source, i+1, result.Score)
		if result.OriginIndex != nil {
			fmt.Fprintf(w, " | Passage: %d", *result.OriginIndex)
		}
		fmt.Fprintf(w, "\n\n%s\n\n", utils.Truncate(result.Text, 300))
	}
}

// WriteStatus writes an index status report to w.
func WriteStatus(w io.Writer, st index.Status, diskUsage *int64, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			index.Status
			DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
		}{st, diskUsage})
	}
	fmt.Fprintf(w, "artifact_path:      %s\n", st.Path)
	fmt.Fprintf(w, "loaded:             %t\n", st.Loaded)
	if st.Loaded {
		fmt.Fprintf(w, "encoder:            %s\n", st.EncoderID)
		fmt.Fprintf(w, "passages:           %d\n", st.Passages)
		fmt.Fprintf(w, "dimensions:         %d\n", st.Dimensions)
		if st.Source != "" {
			fmt.Fprintf(w, "source:             %s\n", st.Source)
		}
		if st.BuildID != "" {
			fmt.Fprintf(w, "build_id:           %s\n", st.BuildID)
		}
		if st.CreatedAt != nil {
			fmt.Fprintf(w, "created_at:         %s\n", st.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		}
	}
	fmt.Fprintf(w, "file_size_mb:       %.2f\n", float64(st.FileBytes)/(1024*1024))
	if diskUsage != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # artifact + embedding cache\n", *diskUsage)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
