package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/fetch"
	"github.com/jonathan/news-pipeline/internal/types"
)

// RSSOptions configures the RSS source.
type RSSOptions struct {
	Feeds  []string
	Client *http.Client
}

// RSS reads articles from RSS or Atom feeds.
type RSS struct {
	opts   RSSOptions
	logger *zap.Logger
}

// NewRSS creates an RSS source.
func NewRSS(opts RSSOptions, logger *zap.Logger) *RSS {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSS{opts: opts, logger: logger}
}

// Name implements Source.
func (r *RSS) Name() string {
	return "rss"
}

// Fetch implements Source. Feeds that fail are logged and skipped.
func (r *RSS) Fetch(ctx context.Context) ([]types.RawArticle, error) {
	var all []types.RawArticle
	for _, feedURL := range r.opts.Feeds {
		feed, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Error("failed to read feed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}

		articles := feedArticles(feed)
		r.logger.Info("fetched feed", zap.String("feed", feedURL), zap.Int("articles", len(articles)))
		all = append(all, articles...)
	}

	if len(all) == 0 {
		return nil, ErrNoArticles
	}
	return dedupeByURL(all), nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", fetch.DefaultUserAgent)

	resp, err := r.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}
	return feed, nil
}

func feedArticles(feed *gofeed.Feed) []types.RawArticle {
	publisher := strings.TrimSpace(feed.Title)
	out := make([]types.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}

		var description *string
		if text := stripHTML(item.Description); text != "" {
			description = &text
		}

		src := types.Source{}
		if publisher != "" {
			src = types.NamedSource(publisher)
		}

		article := types.NewRawArticle(strings.TrimSpace(item.Title), description, item.Link, itemDate(item), src)
		if item.Image != nil && item.Image.URL != "" {
			image := item.Image.URL
			article.URLToImage = &image
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
			author := item.Authors[0].Name
			article.Author = &author
		}
		out = append(out, article)
	}
	return out
}

func itemDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(time.RFC3339)
	case item.Published != "":
		return item.Published
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(time.RFC3339)
	default:
		return item.Updated
	}
}

// stripHTML returns the visible text of an HTML fragment with collapsed whitespace.
func stripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
