package helper

import "fmt"

// Error wraps an underlying error with the operation that produced it
type Error struct {
	Operation string
	Err       error
}

// NewError creates a new wrapped error for the given operation
func NewError(operation string, err error) *Error {
	return &Error{
		Operation: operation,
		Err:       err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error in %v: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
