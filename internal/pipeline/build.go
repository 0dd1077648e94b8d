package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/content"
	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/logging"
	"github.com/jonathan/news-pipeline/internal/sentiment"
	"github.com/jonathan/news-pipeline/internal/sink"
	"github.com/jonathan/news-pipeline/internal/source"
	"github.com/jonathan/news-pipeline/internal/transform"
)

// BuildOptions adjusts a configured run.
type BuildOptions struct {
	// Mode overrides cfg.Sink.Mode when non-empty.
	Mode       string
	OnProgress ProgressCallback
	// WrapSink decorates the configured sink, e.g. to capture rows for a preview.
	WrapSink func(sink.Sink) sink.Sink
}

// Runner is a fully wired ETL plus the resources it owns.
type Runner struct {
	ETL     *ETL
	closers []func()
}

// Run executes one ETL cycle.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	return r.ETL.Run(ctx)
}

// Close releases the sink, the classifier and the ledger connection.
func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// NewExtractor builds the content extractor from configuration.
func NewExtractor(cfg config.ExtractConfig, logger *zap.Logger) *content.Extractor {
	return content.New(content.Options{
		Timeout:        cfg.Timeout,
		MaxLength:      cfg.MaxLength,
		Concurrency:    cfg.Concurrency,
		UseBrowser:     cfg.UseBrowser,
		BrowserTimeout: cfg.BrowserTimeout,
	}, logging.Component(logger, "content"))
}

// NewScorer initializes the configured classifier backend.
func NewScorer(ctx context.Context, cfg config.SentimentConfig, logger *zap.Logger) (*sentiment.Scorer, error) {
	logger = logging.Component(logger, "sentiment")
	initializer, err := sentiment.NewInitializer(sentiment.BackendOptions{
		Backend: cfg.Backend,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	}, logger)
	if err != nil {
		return nil, err
	}
	return sentiment.NewScorer(ctx, initializer, sentiment.Options{
		Backend:   cfg.Backend,
		BatchSize: cfg.BatchSize,
		MaxChars:  cfg.MaxChars,
	}, logger)
}

// Build wires source, extractor, scorer, sink and the optional run ledger from cfg.
// The caller must Close the returned Runner.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	modeName := cfg.Sink.Mode
	if opts.Mode != "" {
		modeName = opts.Mode
	}
	mode, err := sink.ParseWriteMode(modeName)
	if err != nil {
		return nil, err
	}
	key, err := transform.ParseKey(cfg.Dedup.Key)
	if err != nil {
		return nil, err
	}

	src, err := source.FromConfig(cfg.Source, logging.Component(logger, "source"))
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	r := &Runner{}
	ok := false
	defer func() {
		if !ok {
			r.Close()
		}
	}()

	scorer, err := NewScorer(ctx, cfg.Sentiment, logger)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, func() {
		if err := scorer.Close(); err != nil {
			logger.Warn("failed to close classifier", zap.Error(err))
		}
	})

	snk, err := sink.FromConfig(ctx, cfg.Sink, cfg.Database, logging.Component(logger, "sink"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sink: %w", err)
	}
	r.closers = append(r.closers, func() {
		if err := snk.Close(); err != nil {
			logger.Warn("failed to close sink", zap.Error(err))
		}
	})
	if opts.WrapSink != nil {
		snk = opts.WrapSink(snk)
	}

	etlOpts := ETLOptions{Mode: mode, OnProgress: opts.OnProgress}
	if cfg.Database.URL != "" {
		if ledger := connectLedger(ctx, cfg.Database.URL, logger); ledger != nil {
			etlOpts.Ledger = ledger
			r.closers = append(r.closers, ledger.Close)
		}
	}

	orchestrator := NewOrchestrator(NewExtractor(cfg.Extract, logger), scorer, Options{DedupKey: key}, logging.Component(logger, "orchestrator"))
	r.ETL = NewETL(src, orchestrator, snk, etlOpts, logging.Component(logger, "etl"))
	ok = true
	return r, nil
}

// connectLedger opens the run ledger. It returns nil when the database is unavailable.
func connectLedger(ctx context.Context, url string, logger *zap.Logger) *db.DB {
	database, err := db.Connect(ctx, url)
	if err != nil {
		logger.Warn("run ledger unavailable", zap.Error(err))
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Warn("failed to create run ledger schema", zap.Error(err))
		database.Close()
		return nil
	}
	return database
}

// RunConfigured builds, runs and closes a pipeline in one call.
func RunConfigured(ctx context.Context, cfg *config.Config, opts BuildOptions, logger *zap.Logger) (*Summary, error) {
	runner, err := Build(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	return runner.Run(ctx)
}
