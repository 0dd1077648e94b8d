package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/sink"
	"github.com/jonathan/news-pipeline/internal/transform"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "run in progress", err: ErrRunInProgress, want: http.StatusConflict},
		{name: "validation", err: &ErrValidation{Field: "mode", Message: "bad"}, want: http.StatusBadRequest},
		{name: "write mode", err: fmt.Errorf("parse: %w", sink.ErrInvalidWriteMode), want: http.StatusBadRequest},
		{name: "not found", err: &ErrRunNotFound{RunID: "x"}, want: http.StatusNotFound},
		{name: "no articles", err: transform.ErrNoArticles, want: http.StatusInternalServerError},
		{name: "sink config", err: config.ErrSinkConfigMissing, want: http.StatusInternalServerError},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: mode - bad", (&ErrValidation{Field: "mode", Message: "bad"}).Error())
	assert.Equal(t, "run not found: abc", (&ErrRunNotFound{RunID: "abc"}).Error())
}
