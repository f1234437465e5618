package domain

import (
	"context"
	"fmt"
)

// Operation is a unit of work that the resilience primitives can
// re-execute. Implementations should honor ctx for their own I/O; the
// primitives do not cancel an operation once it has started.
type Operation func(ctx context.Context) (any, error)

// Error is a failure carrying an explicit category tag. Errors raised at
// the throw site with a known category bypass the classifier's substring
// heuristic entirely.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a category-tagged error.
func NewError(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// WrapError tags an underlying error with a category.
func WrapError(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Cause: cause}
}
