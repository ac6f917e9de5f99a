package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned by Open when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNotNumeric is returned by Open when the range column holds text.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrInvalidSelection is returned for selections on columns that cannot be filtered by value.
	ErrInvalidSelection = errors.New("invalid selection")
)

// ArtifactError records why one output could not be produced.
type ArtifactError struct {
	Artifact string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
