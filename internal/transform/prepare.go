package transform

import (
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

// Options configures Prepare.
type Options struct {
	Key Key
}

// Prepare validates a batch, drops image links, removes duplicates and
// normalizes source and date. FullContent is left empty for the extractor.
func Prepare(articles []types.RawArticle, opts Options, logger *zap.Logger) ([]types.EnrichedArticle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := Validate(articles); err != nil {
		return nil, err
	}

	key := opts.Key
	if key == "" {
		key = KeyDescription
	}

	cleaned := make([]types.RawArticle, len(articles))
	for i, a := range articles {
		a.DropImage()
		cleaned[i] = a
	}

	unique := Deduplicate(cleaned, key, logger)

	out := make([]types.EnrichedArticle, len(unique))
	for i, a := range unique {
		date, ok := FormatDate(a.PublishedAt)
		if !ok && a.PublishedAt != "" {
			logger.Warn("could not parse publishedAt, keeping original",
				zap.String("url", a.URL),
				zap.String("publishedAt", a.PublishedAt))
		}
		out[i] = types.EnrichedArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: date,
			Source:      SourceName(a.Source),
		}
	}
	return out, nil
}
