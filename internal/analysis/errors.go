package analysis

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is wrapped when a requested column is absent from the dataset.
var ErrUnknownColumn = errors.New("unknown column")

// EmptyDatasetError indicates a distribution was requested over zero rows.
type EmptyDatasetError struct {
	Column string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("no data: column %q has no rows to compute proportions", e.Column)
}

// IsEmptyDataset reports whether err is or wraps an *EmptyDatasetError.
func IsEmptyDataset(err error) bool {
	var ee *EmptyDatasetError
	return errors.As(err, &ee)
}
