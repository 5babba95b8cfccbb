// Package vector holds the persisted index artifact, its on-disk codec, and brute-force
// similarity search over it.
package vector

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidArtifact is wrapped by Validate and by every decode failure in ReadArtifact.
var ErrInvalidArtifact = errors.New("invalid index artifact")

// Metadata describes how and from what an artifact was built.
type Metadata struct {
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	Dimensions [2]int    `json:"dimensions"` // [passages, vector dimension]
	BuildID    string    `json:"build_id"`
	Normalized bool      `json:"normalized"`
}

// Artifact is an immutable offline index: passages, one embedding per passage, and the ID of
// the encoder that produced them. Vectors[i] is the embedding of Texts[i].
type Artifact struct {
	EncoderID string
	Texts     []string
	Vectors   [][]float32
	Metadata  Metadata
}

// Len returns the number of passages.
func (a *Artifact) Len() int {
	return len(a.Texts)
}

// Dim returns the vector dimension, or 0 for an empty artifact.
func (a *Artifact) Dim() int {
	if len(a.Vectors) == 0 {
		return 0
	}
	return len(a.Vectors[0])
}

// Validate checks that every passage has exactly one finite vector of a shared positive
// dimension.
func (a *Artifact) Validate() error {
	if a.EncoderID == "" {
		return fmt.Errorf("%w: missing encoder id", ErrInvalidArtifact)
	}
	if len(a.Texts) != len(a.Vectors) {
		return fmt.Errorf("%w: %d texts but %d vectors", ErrInvalidArtifact, len(a.Texts), len(a.Vectors))
	}
	d := a.Dim()
	for i, v := range a.Vectors {
		if len(v) == 0 || len(v) != d {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrInvalidArtifact, i, len(v), d)
		}
		for j, f := range v {
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return fmt.Errorf("%w: vector %d component %d is %v", ErrInvalidArtifact, i, j, f)
			}
		}
	}
	if n := len(a.Texts); n > 0 && a.Metadata.Dimensions != [2]int{} && a.Metadata.Dimensions != [2]int{n, d} {
		return fmt.Errorf("%w: metadata shape %v does not match [%d %d]", ErrInvalidArtifact, a.Metadata.Dimensions, n, d)
	}
	return nil
}
