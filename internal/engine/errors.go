package engine

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch marks a fatal configuration error: the combined
// feature layout and the trained ensemble disagree. Caught when the engine is
// built, never at prediction time.
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// InputError marks a malformed issue field. Recoverable: in a batch it fails
// only the offending item's slot.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid issue %s: %s", e.Field, e.Reason)
}
