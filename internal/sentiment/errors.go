package sentiment

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingResult is returned for a text the classifier returned no result for.
	ErrMissingResult = errors.New("classifier returned no result for text")
	// ErrUnknownBackend is returned for an unsupported classifier backend name.
	ErrUnknownBackend = errors.New("unknown sentiment backend")
)

// InitError is returned when the classifier cannot be created. It aborts the scoring stage.
type InitError struct {
	Backend string
	Cause   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s sentiment classifier: %v", e.Backend, e.Cause)
}

func (e *InitError) Unwrap() error {
	return e.Cause
}

// WindowError records that classification of a whole window failed.
type WindowError struct {
	Window int
	Cause  error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("classification failed for window %d: %v", e.Window, e.Cause)
}

func (e *WindowError) Unwrap() error {
	return e.Cause
}

// UnknownLabelError is returned for a classifier label outside POSITIVE/NEGATIVE/NEUTRAL.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown sentiment label %q", e.Label)
}
