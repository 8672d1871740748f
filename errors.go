package unspool

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a configuration value failed validation.
	ErrValidation = errors.New("validation error")

	// ErrUnknownMessage indicates an operation referenced a message that was
	// never begun or was discarded by a reset.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
