package content

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/news-pipeline/internal/fetch"
)

// Options configures an Extractor.
type Options struct {
	Timeout     time.Duration
	MaxLength   int
	Concurrency int
	// UseBrowser re-renders pages with a headless browser when the HTTP body yields no text.
	UseBrowser     bool
	BrowserTimeout time.Duration
	// Client overrides the HTTP client (tests, proxies).
	Client *http.Client
}

// DefaultOptions returns the extractor defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:        fetch.DefaultTimeout,
		MaxLength:      DefaultMaxLength,
		Concurrency:    1,
		BrowserTimeout: fetch.DefaultBrowserTimeout,
	}
}

// RenderFunc returns the rendered HTML of a page.
type RenderFunc func(ctx context.Context, url string) (string, error)

// Extractor fetches article pages and extracts their text. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	opts      Options
	fetchOpts *fetch.Options
	render    RenderFunc
	logger    *zap.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRenderer replaces the headless browser renderer.
func WithRenderer(render RenderFunc) Option {
	return func(e *Extractor) {
		e.render = render
	}
}

// New creates an Extractor. Zero-valued options fall back to defaults.
func New(opts Options, logger *zap.Logger, options ...Option) *Extractor {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = defaults.MaxLength
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.BrowserTimeout <= 0 {
		opts.BrowserTimeout = defaults.BrowserTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = opts.Timeout
	fetchOpts.Client = opts.Client

	e := &Extractor{
		opts:      opts,
		fetchOpts: fetchOpts,
		logger:    logger,
	}
	e.render = func(ctx context.Context, url string) (string, error) {
		return fetch.WithBrowser(ctx, url, e.opts.BrowserTimeout, e.logger)
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Extract returns the article text for url, or a diagnostic string. It never fails.
func (e *Extractor) Extract(ctx context.Context, url string) string {
	return e.Fetch(ctx, url).Resolve()
}

// Fetch retrieves and extracts one page, returning failures as values.
func (e *Extractor) Fetch(ctx context.Context, url string) Outcome {
	if strings.TrimSpace(url) == "" {
		return Outcome{Err: ErrInvalidURL}
	}

	result, err := fetch.URL(ctx, url, e.fetchOpts)
	if err != nil {
		e.logger.Warn("failed to fetch article", zap.String("url", url), zap.Error(err))
		return Outcome{Err: err}
	}

	text, err := extractFromHTML(ctx, url, result.HTML)
	if err != nil {
		e.logger.Warn("failed to extract article", zap.String("url", url), zap.Error(err))
		return Outcome{Err: err}
	}

	if text == "" && e.opts.UseBrowser {
		text = e.renderText(ctx, url)
	}

	if text == "" {
		e.logger.Debug("no content found", zap.String("url", url))
		return Outcome{Err: ErrNoContent}
	}
	return Outcome{Text: Truncate(text, e.opts.MaxLength)}
}

// renderText retries extraction on the browser-rendered page. Failures yield "".
func (e *Extractor) renderText(ctx context.Context, url string) string {
	rendered, err := e.render(ctx, url)
	if err != nil {
		e.logger.Debug("browser fallback failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	text, err := extractFromHTML(ctx, url, rendered)
	if err != nil {
		e.logger.Debug("browser fallback produced unparseable page", zap.String("url", url), zap.Error(err))
		return ""
	}
	return text
}

// ExtractAll fetches every URL, at most Concurrency at a time. outcomes[i]
// always corresponds to urls[i]; one failing URL never affects the others.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(e.opts.Concurrency)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Err: err}
				return nil
			}
			outcomes[i] = e.Fetch(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	degraded := 0
	for _, o := range outcomes {
		if o.Degraded() && !errors.Is(o.Err, ErrNoContent) {
			degraded++
		}
	}
	e.logger.Info("content extraction complete",
		zap.Int("articles", len(urls)),
		zap.Int("failed", degraded))

	return outcomes
}
