package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/news-pipeline/internal/schemas"
	"github.com/jonathan/news-pipeline/internal/types"
)

// File reads a JSON array of raw article records, e.g. a saved NewsAPI batch.
type File struct {
	Path string
}

// NewFile creates a file source.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Name implements Source.
func (f *File) Name() string {
	return "file"
}

// Fetch implements Source. An empty array is returned as-is; the pipeline rejects it.
func (f *File) Fetch(ctx context.Context) ([]types.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles file %s: %w", f.Path, err)
	}
	return DecodeArticles(data)
}

// DecodeArticles validates and decodes a JSON array of raw articles.
func DecodeArticles(data []byte) ([]types.RawArticle, error) {
	if err := schemas.Validate(schemas.RawArticles, string(data)); err != nil {
		return nil, fmt.Errorf("invalid articles document: %w", err)
	}

	var articles []types.RawArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return articles, nil
}
