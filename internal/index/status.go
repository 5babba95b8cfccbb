package index

import (
	"time"

	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// Status summarizes an index artifact for the status endpoint and command.
type Status struct {
	Path       string     `json:"path"`
	Loaded     bool       `json:"loaded"`
	EncoderID  string     `json:"encoder_id,omitempty"`
	Passages   int        `json:"passages"`
	Dimensions int        `json:"dimensions"`
	Source     string     `json:"source,omitempty"`
	BuildID    string     `json:"build_id,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	FileBytes  int64      `json:"file_bytes"`
}

// StatusOf describes a (nil when not loaded) as served from path.
func StatusOf(path string, a *vector.Artifact) Status {
	st := Status{Path: path, FileBytes: storage.FileSize(path)}
	if a == nil {
		return st
	}
	st.Loaded = true
	st.EncoderID = a.EncoderID
	st.Passages = a.Len()
	st.Dimensions = a.Dim()
	st.Source = a.Metadata.Source
	st.BuildID = a.Metadata.BuildID
	if !a.Metadata.CreatedAt.IsZero() {
		created := a.Metadata.CreatedAt
		st.CreatedAt = &created
	}
	return st
}

// Status describes the artifact currently served by h.
func (h *Handle) Status() Status {
	return StatusOf(h.path, h.Current())
}
