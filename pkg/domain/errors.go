package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is returned when a tree is empty or structurally malformed.
var ErrInvalidTree = errors.New("invalid tree")

// ErrIndexOutOfRange is returned when a split references a feature index not covered by the feature names.
var ErrIndexOutOfRange = errors.New("feature index out of range")

// ErrEmptyFeatureSet is returned when an encode is attempted with zero feature names.
var ErrEmptyFeatureSet = errors.New("feature names cannot be empty")

// ErrUnsupportedAlgorithm is returned for model algorithms the encoder cannot traverse.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// ErrModelNotFound is returned when no metadata exists for a model key.
var ErrModelNotFound = errors.New("model not found")

// ErrInvalidCommand is returned when protocol text cannot be parsed.
var ErrInvalidCommand = errors.New("invalid command")

// ErrInvalidMetadata is returned when a publish or score payload fails validation.
var ErrInvalidMetadata = errors.New("invalid model metadata")

// ErrEngine is returned when the scoring engine rejects a command or cannot be reached.
var ErrEngine = errors.New("engine failure")

// IndexError reports a split node whose feature index falls outside the feature names.
type IndexError struct {
	Path  string // Path of the offending split node
	Index int    // Feature index found on the node
	Len   int    // Number of feature names supplied
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("node %q: feature index %d not in [0,%d)", e.Path, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// TreeError reports a structural problem found while walking a tree.
type TreeError struct {
	Path   string
	Reason string
}

func (e *TreeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid tree: %s", e.Reason)
	}
	return fmt.Sprintf("invalid tree at %q: %s", e.Path, e.Reason)
}

func (e *TreeError) Unwrap() error {
	return ErrInvalidTree
}
