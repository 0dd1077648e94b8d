package transform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoArticles is returned when a batch contains no articles.
	ErrNoArticles = errors.New("no articles provided for transformation")
	// ErrInvalidKey is returned for an unknown deduplication key.
	ErrInvalidKey = errors.New("invalid deduplication key")
)

// MissingFieldsError is returned when no record in a batch carries one or more required fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Fields, ", "))
}
