package content

import (
	"errors"

	"github.com/jonathan/news-pipeline/internal/fetch"
)

// Diagnostic strings stored in full_content when extraction degrades.
const (
	DiagnosticInvalidURL = "Error: Invalid URL"
	DiagnosticNoContent  = "No content extracted"
	requestErrorPrefix   = "Request error: "
	errorPrefix          = "Error: "
)

// Outcome is the result of extracting one page: either text or the reason there is none.
type Outcome struct {
	Text string
	Err  error
}

// Degraded reports whether the outcome carries a failure instead of page text.
func (o Outcome) Degraded() bool {
	return o.Err != nil
}

// Resolve converts the outcome into the string stored in the full_content column.
func (o Outcome) Resolve() string {
	if o.Err == nil {
		return o.Text
	}
	return Diagnostic(o.Err)
}

// Diagnostic renders an extraction failure as its diagnostic string.
func Diagnostic(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidURL):
		return DiagnosticInvalidURL
	case errors.Is(err, ErrNoContent):
		return DiagnosticNoContent
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return requestErrorPrefix + fetchErr.Description()
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return errorPrefix + parseErr.Cause.Error()
	}
	return errorPrefix + err.Error()
}

// Texts resolves a slice of outcomes in order.
func Texts(outcomes []Outcome) []string {
	texts := make([]string, len(outcomes))
	for i, o := range outcomes {
		texts[i] = o.Resolve()
	}
	return texts
}
