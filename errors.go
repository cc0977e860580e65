package filter

import (
	"github.com/sectrean/filter-kit/internal/errors"
)

var (
	// ErrOutOfScope is returned when the current request, response, or Context is accessed
	// outside of a dispatch.
	ErrOutOfScope = errors.New("out of scope: not inside a filter dispatch, " +
		"or the filter gate is not installed upstream of this handler")

	// ErrStackUnderflow is the panic value (wrapped) when popping an empty Stack.
	// It means a filter popped more contexts than it pushed.
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrAlreadyScoped is returned by [Continue] when the context already belongs to an
	// active dispatch.
	ErrAlreadyScoped = errors.New("cannot continue a request inside another active dispatch")

	// ErrInvalidContext is returned when a request or response is nil.
	ErrInvalidContext = errors.New("request and response must not be nil")

	// ErrUnknownHost is returned when a host handle is not registered with the [Host].
	ErrUnknownHost = errors.New("server context not registered with host")
)
