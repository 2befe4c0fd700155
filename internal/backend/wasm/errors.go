package wasm

import (
	"fmt"

	"knox/internal/source"
)

// InternalError means the checked program reached the generator in a shape
// the checker promised it would not; it is a compiler bug, not a user error.
type InternalError struct {
	Msg  string
	Span source.Span
	// Func is the symbol of the function being lowered, if any.
	Func string
}

func (e *InternalError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("internal codegen error in %s: %s", e.Func, e.Msg)
	}
	return "internal codegen error: " + e.Msg
}

func internalf(sp source.Span, format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...), Span: sp}
}
