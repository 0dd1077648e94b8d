// Package pipeline composes the transform, extraction and scoring stages into a run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/content"
	"github.com/jonathan/news-pipeline/internal/sentiment"
	"github.com/jonathan/news-pipeline/internal/transform"
	"github.com/jonathan/news-pipeline/internal/types"
)

// ContentExtractor fetches page text for URLs, one outcome per URL in order.
type ContentExtractor interface {
	ExtractAll(ctx context.Context, urls []string) []content.Outcome
}

// SentimentScorer classifies texts, one outcome per text in order.
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) []sentiment.Outcome
}

// StepObserver is told when an orchestrator step finishes.
type StepObserver func(step string, elapsed time.Duration, message string)

// Options configures the orchestrator.
type Options struct {
	DedupKey transform.Key
}

// Result is the output of one orchestrated batch.
type Result struct {
	Rows []types.ScoredArticle
	// Input is the number of raw articles received.
	Input int
	// Duplicates is the number of articles removed by deduplication.
	Duplicates        int
	ContentDegraded   int
	SentimentDegraded int
}

// Orchestrator turns a raw batch into scored rows.
type Orchestrator struct {
	extractor ContentExtractor
	scorer    SentimentScorer
	opts      Options
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(extractor ContentExtractor, scorer SentimentScorer, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DedupKey == "" {
		opts.DedupKey = transform.KeyDescription
	}
	return &Orchestrator{extractor: extractor, scorer: scorer, opts: opts, logger: logger}
}

// Run processes raw articles into scored rows. Validation failures are fatal;
// extraction and scoring failures degrade individual rows.
func (o *Orchestrator) Run(ctx context.Context, raw []types.RawArticle) ([]types.ScoredArticle, error) {
	result, err := o.Process(ctx, raw, nil)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// Process is Run with per-step reporting and degradation counts.
func (o *Orchestrator) Process(ctx context.Context, raw []types.RawArticle, observe StepObserver) (*Result, error) {
	if observe == nil {
		observe = func(string, time.Duration, string) {}
	}

	start := time.Now()
	enriched, err := transform.Prepare(raw, transform.Options{Key: o.opts.DedupKey}, o.logger)
	if err != nil {
		return nil, &StepError{Step: StepTransform, Err: err}
	}
	observe(StepTransform, time.Since(start),
		fmt.Sprintf("Prepared %d articles (%d duplicates removed)", len(enriched), len(raw)-len(enriched)))

	start = time.Now()
	urls := make([]string, len(enriched))
	for i, a := range enriched {
		urls[i] = a.URL
	}
	extracted := o.extractor.ExtractAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		return nil, &StepError{Step: StepExtract, Err: err}
	}
	if len(extracted) != len(enriched) {
		return nil, &StepError{Step: StepExtract, Err: fmt.Errorf("extractor returned %d outcomes for %d articles", len(extracted), len(enriched))}
	}

	contentDegraded := 0
	for i, outcome := range extracted {
		enriched[i].FullContent = outcome.Resolve()
		if outcome.Degraded() {
			contentDegraded++
		}
	}
	observe(StepExtract, time.Since(start),
		fmt.Sprintf("Extracted content for %d articles (%d degraded)", len(enriched), contentDegraded))

	start = time.Now()
	texts := make([]string, len(enriched))
	for i, a := range enriched {
		texts[i] = a.FullContent
	}
	scored := o.scorer.Score(ctx, texts)
	if err := ctx.Err(); err != nil {
		return nil, &StepError{Step: StepScore, Err: err}
	}
	if len(scored) != len(enriched) {
		return nil, &StepError{Step: StepScore, Err: fmt.Errorf("scorer returned %d outcomes for %d texts", len(scored), len(enriched))}
	}

	rows := make([]types.ScoredArticle, len(enriched))
	sentimentDegraded := 0
	for i, a := range enriched {
		outcome := scored[i]
		if outcome.Degraded() {
			sentimentDegraded++
		}
		result := outcome.Resolve()
		rows[i] = types.ScoredArticle{
			EnrichedArticle: a,
			SentimentLabel:  result.Label,
			SentimentScore:  result.Score,
			SentimentValue:  outcome.Value(),
		}
	}
	observe(StepScore, time.Since(start),
		fmt.Sprintf("Scored %d articles (%d degraded)", len(rows), sentimentDegraded))

	o.logger.Info("batch processed",
		zap.Int("input", len(raw)),
		zap.Int("rows", len(rows)),
		zap.Int("content_degraded", contentDegraded),
		zap.Int("sentiment_degraded", sentimentDegraded))

	return &Result{
		Rows:              rows,
		Input:             len(raw),
		Duplicates:        len(raw) - len(enriched),
		ContentDegraded:   contentDegraded,
		SentimentDegraded: sentimentDegraded,
	}, nil
}
