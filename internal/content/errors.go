package content

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for a missing or blank article URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNoContent is returned when no extraction tier found any text.
	ErrNoContent = errors.New("no content extracted")
)

// ParseError represents a failure to parse a fetched page.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
