package prepare

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel wrapped by every ValidationError
var ErrValidation = errors.New("validation error")

// ValidationError describes a history row that cannot be used. Row is the zero based input
// position or -1 when the error concerns the whole history.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func NewValidationError(row int, field, reason string) *ValidationError {
	return &ValidationError{Row: row, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Row < 0 {
		if e.Field == "" {
			return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
		}
		return fmt.Sprintf("%s: field %q: %s", ErrValidation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: row %d: field %q: %s", ErrValidation, e.Row, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
