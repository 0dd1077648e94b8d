// Package transform validates, deduplicates and normalizes raw article batches.
package transform

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

// Key selects the field articles are deduplicated on.
type Key string

// Deduplication keys.
const (
	KeyDescription Key = "description"
	KeyURL         Key = "url"
)

// ParseKey parses a deduplication key name. Empty means KeyDescription.
func ParseKey(s string) (Key, error) {
	switch Key(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyDescription:
		return KeyDescription, nil
	case KeyURL:
		return KeyURL, nil
	default:
		return "", fmt.Errorf("%w: %q (expected description or url)", ErrInvalidKey, s)
	}
}

// Deduplicate keeps the first article for each key value, preserving order.
// With KeyDescription a null and an empty description are the same key.
func Deduplicate(articles []types.RawArticle, key Key, logger *zap.Logger) []types.RawArticle {
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[string]struct{}, len(articles))
	out := make([]types.RawArticle, 0, len(articles))
	for _, a := range articles {
		k := keyOf(a, key)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}

	logger.Info("removed duplicates",
		zap.String("key", string(key)),
		zap.Int("before", len(articles)),
		zap.Int("after", len(out)))
	return out
}

func keyOf(a types.RawArticle, key Key) string {
	if key == KeyURL {
		return a.URL
	}
	return a.DescriptionKey()
}
