package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/news-pipeline/internal/sink"
)

// ErrRunInProgress is returned when a trigger arrives while a run is executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates the ledger has no such run
type ErrRunNotFound struct {
	RunID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var notFound *ErrRunNotFound
	switch {
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &validation), errors.Is(err, sink.ErrInvalidWriteMode):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
