// Package sentiment classifies article text polarity in fixed-size windows
// while keeping every output aligned with its input.
package sentiment

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

// Scoring defaults.
const (
	DefaultBatchSize = 32
	DefaultMaxChars  = 512
)

// Options configures a Scorer.
type Options struct {
	// Backend names the classifier in errors and logs.
	Backend   string
	BatchSize int
	// MaxChars caps each text before classification.
	MaxChars int
	// WindowTimeout bounds one classifier call; zero means no limit.
	WindowTimeout time.Duration
}

// Scorer runs a Classifier over texts window by window.
type Scorer struct {
	classifier Classifier
	opts       Options
	logger     *zap.Logger
}

// NewScorer initializes the classifier and returns a Scorer. A failing
// initializer is returned as *InitError.
func NewScorer(ctx context.Context, init Initializer, opts Options, logger *zap.Logger) (*Scorer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Backend == "" {
		opts.Backend = "custom"
	}

	logger.Info("initializing sentiment classifier", zap.String("backend", opts.Backend))
	classifier, err := init(ctx)
	if err != nil {
		logger.Error("sentiment classifier initialization failed", zap.String("backend", opts.Backend), zap.Error(err))
		return nil, &InitError{Backend: opts.Backend, Cause: err}
	}
	return NewScorerWithClassifier(classifier, opts, logger), nil
}

// NewScorerWithClassifier wraps an already constructed classifier.
func NewScorerWithClassifier(classifier Classifier, opts Options, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	return &Scorer{classifier: classifier, opts: opts, logger: logger}
}

// Close releases the classifier if it holds resources.
func (s *Scorer) Close() error {
	if c, ok := s.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Score classifies texts. The result always has len(texts) entries and
// result[i] belongs to texts[i]. Blank texts get the NEUTRAL default without
// reaching the classifier; classifier failures become degraded outcomes.
func (s *Scorer) Score(ctx context.Context, texts []string) []Outcome {
	s.logger.Info("applying sentiment analysis",
		zap.Int("texts", len(texts)),
		zap.Int("batch_size", s.opts.BatchSize))

	out := make([]Outcome, 0, len(texts))
	for start, window := 0, 0; start < len(texts); start, window = start+s.opts.BatchSize, window+1 {
		end := min(start+s.opts.BatchSize, len(texts))
		out = append(out, s.scoreWindow(ctx, window, texts[start:end])...)
	}

	if len(out) != len(texts) {
		s.logger.Warn("sentiment results length mismatch, adjusting",
			zap.Int("results", len(out)),
			zap.Int("texts", len(texts)))
		for len(out) < len(texts) {
			out = append(out, Outcome{Result: types.DefaultSentiment(), Err: ErrMissingResult})
		}
		out = out[:len(texts)]
	}

	s.logger.Info("sentiment analysis completed")
	return out
}

// ScoreTexts is Score followed by Resolve.
func (s *Scorer) ScoreTexts(ctx context.Context, texts []string) []types.SentimentResult {
	return Resolve(s.Score(ctx, texts))
}

func (s *Scorer) scoreWindow(ctx context.Context, window int, texts []string) []Outcome {
	results := make([]Outcome, len(texts))
	var valid []string
	var indices []int
	for i, text := range texts {
		results[i] = Outcome{Result: types.DefaultSentiment()}
		if strings.TrimSpace(text) == "" {
			continue
		}
		valid = append(valid, truncate(text, s.opts.MaxChars))
		indices = append(indices, i)
	}

	if len(valid) == 0 {
		return results
	}

	batch, err := s.classify(ctx, valid)
	if err != nil {
		s.logger.Error("error in batch sentiment analysis",
			zap.Int("window", window),
			zap.Int("texts", len(valid)),
			zap.Error(err))
		windowErr := &WindowError{Window: window, Cause: err}
		for _, idx := range indices {
			results[idx] = Outcome{Result: types.DefaultSentiment(), Err: windowErr}
		}
		return results
	}

	if len(batch) != len(valid) {
		s.logger.Warn("classifier returned unexpected result count",
			zap.Int("window", window),
			zap.Int("expected", len(valid)),
			zap.Int("got", len(batch)))
	}

	for k, idx := range indices {
		if k >= len(batch) {
			results[idx] = Outcome{Result: types.DefaultSentiment(), Err: ErrMissingResult}
			continue
		}
		results[idx] = s.normalize(batch[k], window, idx)
	}
	return results
}

func (s *Scorer) classify(ctx context.Context, texts []string) ([]Outcome, error) {
	if s.opts.WindowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.WindowTimeout)
		defer cancel()
	}
	return s.classifier.ClassifyBatch(ctx, texts)
}

// normalize validates a classifier outcome's label, degrading unknown labels.
func (s *Scorer) normalize(o Outcome, window, index int) Outcome {
	if o.Err != nil {
		s.logger.Warn("error processing text",
			zap.Int("window", window),
			zap.Int("index", index),
			zap.Error(o.Err))
		return Outcome{Result: types.DefaultSentiment(), Err: o.Err}
	}

	label, ok := types.ParseSentimentLabel(string(o.Result.Label))
	if !ok {
		err := &UnknownLabelError{Label: string(o.Result.Label)}
		s.logger.Warn("unknown sentiment label, using NEUTRAL",
			zap.Int("window", window),
			zap.Int("index", index),
			zap.String("label", string(o.Result.Label)))
		return Outcome{Result: types.DefaultSentiment(), Err: err}
	}
	return Outcome{Result: types.SentimentResult{Label: label, Score: o.Result.Score}}
}

// truncate keeps the first n characters of text.
func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

// IsInitError reports whether err is a classifier initialization failure.
func IsInitError(err error) bool {
	var initErr *InitError
	return errors.As(err, &initErr)
}
