package normalize

import (
	"errors"
	"fmt"
)

// ErrMalformedDataset is returned when the dataset document cannot be decoded at all.
var ErrMalformedDataset = errors.New("malformed dataset")

// ValidationError reports a record missing or carrying an invalid required field.
// Position is the record's offset in the input array.
type ValidationError struct {
	Position int
	Index    *int
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Index != nil {
		return fmt.Sprintf("event %d (position %d): %s: %s", *e.Index, e.Position, e.Field, e.Reason)
	}
	return fmt.Sprintf("event at position %d: %s: %s", e.Position, e.Field, e.Reason)
}
