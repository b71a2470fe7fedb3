package logic

import (
	"errors"
	"fmt"
)

// ValidationError is a caller mistake: bad target, sub-minute entry,
// removal over balance. Nothing was persisted when one is returned.
// Everything else coming out of this package is a persistence failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// invalid builds a ValidationError
func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation distinguishes caller mistakes from persistence failures
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
