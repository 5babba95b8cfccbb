package index

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArtifact means no artifact exists at the configured path.
	ErrMissingArtifact = errors.New("index artifact missing")
	// ErrCorruptArtifact means the artifact could not be decoded or violated its invariants.
	// The file has been removed by the time this is returned.
	ErrCorruptArtifact = errors.New("index artifact corrupt")
	// ErrConfigMismatch means the artifact was built by a different encoder than the one configured.
	ErrConfigMismatch = errors.New("encoder does not match index")
	// ErrBuildInProgress means another process holds the build lock for the artifact path.
	ErrBuildInProgress = errors.New("another build is in progress")
	// ErrEmptyCorpus means no passages remain after cleaning.
	ErrEmptyCorpus = errors.New("corpus has no passages")
)

// MissingArtifactError carries the expected artifact path.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("index artifact not found at %s; run `kotae build` to generate it", e.Path)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

// CorruptArtifactError reports why an artifact was rejected and whether it was deleted.
type CorruptArtifactError struct {
	Path    string
	Removed bool
	Err     error
}

func (e *CorruptArtifactError) Error() string {
	action := "it was removed"
	if !e.Removed {
		action = "it could not be removed"
	}
	return fmt.Sprintf("index artifact %s is corrupt (%v); %s, run `kotae build` to regenerate it", e.Path, e.Err, action)
}

func (e *CorruptArtifactError) Is(target error) bool { return target == ErrCorruptArtifact }

func (e *CorruptArtifactError) Unwrap() error { return e.Err }

// ConfigMismatchError names both encoder identities.
type ConfigMismatchError struct {
	IndexEncoder string
	IndexDim     int
	Encoder      string
	EncoderDim   int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("index was built with %s (%d dims) but the configured encoder is %s (%d dims); rebuild the index or change embedding settings",
		e.IndexEncoder, e.IndexDim, e.Encoder, e.EncoderDim)
}

func (e *ConfigMismatchError) Unwrap() error { return ErrConfigMismatch }
