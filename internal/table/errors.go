package table

import (
	"errors"
	"fmt"
	"strings"
)

// LoadError indicates the input matched none of the supported formats.
type LoadError struct {
	Name   string
	Causes []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	if e.Name != "" {
		return fmt.Sprintf("could not parse file %s: %s", e.Name, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("could not parse file: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes every decoder failure to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error { return e.Causes }

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
