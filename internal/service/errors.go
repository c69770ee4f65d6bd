package service

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced ticket, agent, team or session that is absent.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. It is surfaced to the caller as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", v.Field, v.Reason)
}

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
