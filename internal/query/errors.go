package query

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery marks a filter tree that cannot be compiled.
var ErrInvalidQuery = errors.New("invalid query")

// Error describes a compile failure at a position in the filter tree.
type Error struct {
	// Where is a dotted location such as "filters[1].filters[0]".
	Where  string
	Reason string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("invalid query: %s", e.Reason)
	}
	return fmt.Sprintf("invalid query at %s: %s", e.Where, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalidQuery }

// ErrorKind reports the machine readable classification.
func (e *Error) ErrorKind() string { return "invalid_query" }

func invalid(where, format string, args ...any) error {
	return &Error{Where: where, Reason: fmt.Sprintf(format, args...)}
}
