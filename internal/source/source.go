// Package source fetches raw article batches from upstream providers.
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

var (
	// ErrNoArticles is returned when a source produced no articles at all.
	ErrNoArticles = errors.New("no articles were fetched")
	// ErrMissingAPIKey is returned when a keyed source has no API key.
	ErrMissingAPIKey = errors.New("API key is required")
)

// Source produces a batch of raw articles.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]types.RawArticle, error)
}

// APIError is an error reported by an upstream API.
type APIError struct {
	Source     string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error (status %d, %s): %s", e.Source, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Multi concatenates several sources in order. Failing sources are logged and skipped.
type Multi struct {
	sources []Source
	logger  *zap.Logger
}

// NewMulti combines sources.
func NewMulti(logger *zap.Logger, sources ...Source) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sources: sources, logger: logger}
}

// Name implements Source.
func (m *Multi) Name() string {
	return "multi"
}

// Fetch implements Source.
func (m *Multi) Fetch(ctx context.Context) ([]types.RawArticle, error) {
	var all []types.RawArticle
	for _, s := range m.sources {
		articles, err := s.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Error("source failed", zap.String("source", s.Name()), zap.Error(err))
			continue
		}
		all = append(all, articles...)
	}
	if len(all) == 0 {
		return nil, ErrNoArticles
	}
	return all, nil
}

// dedupeByURL keeps the first article for each URL.
func dedupeByURL(articles []types.RawArticle) []types.RawArticle {
	seen := make(map[string]struct{}, len(articles))
	out := make([]types.RawArticle, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}
