package source

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
)

// FromConfig builds the configured source.
func FromConfig(cfg config.SourceConfig, logger *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case "newsapi", "":
		return NewNewsAPI(NewsAPIOptions{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Topics:   cfg.Topics,
			Days:     cfg.Days,
			Language: cfg.Language,
			SortBy:   cfg.SortBy,
			Page:     cfg.Page,
		}, logger)
	case "rss":
		return NewRSS(RSSOptions{Feeds: cfg.Feeds}, logger), nil
	case "file":
		return NewFile(cfg.File), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
