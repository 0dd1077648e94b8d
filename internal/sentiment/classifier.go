package sentiment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/llm"
)

// Classifier labels a batch of texts in one call.
//
// The returned outcomes are positionally aligned with texts; a shorter slice
// leaves the remaining texts unclassified. A non-nil error means the whole
// batch failed.
type Classifier interface {
	ClassifyBatch(ctx context.Context, texts []string) ([]Outcome, error)
}

// Initializer creates a classifier. Its failure is fatal to the scoring stage.
type Initializer func(ctx context.Context) (Classifier, error)

// Backend names.
const (
	BackendGemini  = "gemini"
	BackendLexicon = "lexicon"
)

// BackendOptions configures NewInitializer.
type BackendOptions struct {
	Backend string
	APIKey  string
	Model   string
}

// NewInitializer returns the initializer for a named backend.
func NewInitializer(opts BackendOptions, logger *zap.Logger) (Initializer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendLexicon, "":
		return func(context.Context) (Classifier, error) {
			return NewLexiconClassifier(), nil
		}, nil
	case BackendGemini:
		return func(ctx context.Context) (Classifier, error) {
			config := llm.DefaultConfig().WithModel(llm.TierLite, opts.Model)
			client, err := llm.NewGeminiClient(ctx, config, opts.APIKey, logger)
			if err != nil {
				return nil, err
			}
			return NewGeminiClassifier(client, logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
