package export

import (
	"errors"
	"fmt"
)

// SerializationError indicates a cell the workbook format cannot represent.
type SerializationError struct {
	Column string
	Row    int
	Value  any
	Reason string
}

func (e *SerializationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("cannot serialize row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("cannot serialize column %q row %d (%v): %s", e.Column, e.Row, e.Value, e.Reason)
}

// IsSerializationError reports whether err is or wraps a *SerializationError.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}
