package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/schemas"
	"github.com/jonathan/news-pipeline/internal/types"
)

// DefaultNewsAPIBaseURL is the public NewsAPI endpoint.
const DefaultNewsAPIBaseURL = "https://newsapi.org"

// NewsAPIOptions configures the NewsAPI source.
type NewsAPIOptions struct {
	APIKey   string
	BaseURL  string
	Topics   []string
	Days     int
	Language string
	SortBy   string
	Page     int
	Client   *http.Client
	// Now overrides the clock for the date window.
	Now func() time.Time
}

// NewsAPI searches NewsAPI's /v2/everything endpoint once per topic.
type NewsAPI struct {
	opts   NewsAPIOptions
	logger *zap.Logger
}

// NewNewsAPI creates the source, filling unset options with the usual defaults.
func NewNewsAPI(opts NewsAPIOptions, logger *zap.Logger) (*NewsAPI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: set NEWS_API or source.api_key", ErrMissingAPIKey)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNewsAPIBaseURL
	}
	if len(opts.Topics) == 0 {
		opts.Topics = []string{"GenAI", "AI", "Technology"}
	}
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.SortBy == "" {
		opts.SortBy = "relevancy"
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsAPI{opts: opts, logger: logger}, nil
}

// Name implements Source.
func (n *NewsAPI) Name() string {
	return "newsapi"
}

// Fetch implements Source. Topics that fail are logged and skipped; articles
// are deduplicated by URL across topics.
func (n *NewsAPI) Fetch(ctx context.Context) ([]types.RawArticle, error) {
	now := n.opts.Now()
	to := now.Format("2006-01-02")
	from := now.AddDate(0, 0, -n.opts.Days).Format("2006-01-02")
	n.logger.Info("fetching news window", zap.String("from", from), zap.String("to", to))

	var combined []types.RawArticle
	for _, topic := range n.opts.Topics {
		n.logger.Info("fetching articles for topic", zap.String("topic", topic))
		articles, err := n.fetchTopic(ctx, topic, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			n.logger.Error("error fetching articles for topic", zap.String("topic", topic), zap.Error(err))
			continue
		}
		if len(articles) == 0 {
			n.logger.Warn("no articles found for topic", zap.String("topic", topic))
			continue
		}
		n.logger.Info("fetched articles", zap.String("topic", topic), zap.Int("articles", len(articles)))
		combined = append(combined, articles...)
	}

	if len(combined) == 0 {
		return nil, ErrNoArticles
	}

	unique := dedupeByURL(combined)
	n.logger.Info("total unique articles fetched", zap.Int("articles", len(unique)))
	return unique, nil
}

type newsAPIResponse struct {
	Status   string             `json:"status"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Articles []types.RawArticle `json:"articles"`
}

func (n *NewsAPI) fetchTopic(ctx context.Context, topic, from, to string) ([]types.RawArticle, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("from", from)
	params.Set("to", to)
	params.Set("language", n.opts.Language)
	params.Set("sortBy", n.opts.SortBy)
	params.Set("page", strconv.Itoa(n.opts.Page))

	endpoint := strings.TrimRight(n.opts.BaseURL, "/") + "/v2/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.opts.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := n.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if err := schemas.Validate(schemas.NewsAPIResponse, string(body)); err != nil {
		return nil, &APIError{Source: n.Name(), StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var decoded newsAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if decoded.Status != "ok" || resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Source:     n.Name(),
			StatusCode: resp.StatusCode,
			Code:       decoded.Code,
			Message:    decoded.Message,
		}
	}
	return decoded.Articles, nil
}
