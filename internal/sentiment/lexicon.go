package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/jonathan/news-pipeline/internal/types"
)

// Keyword-based classifier: offline and deterministic, used when no model
// backend is configured.

var positiveWords = map[string]float64{
	"breakthrough": 0.7, "launch": 0.3, "innovative": 0.5, "improve": 0.4,
	"growth": 0.4, "success": 0.6, "record": 0.4, "surge": 0.6,
	"boost": 0.5, "win": 0.5, "benefit": 0.4, "promising": 0.5,
	"advance": 0.4, "exciting": 0.5, "partnership": 0.3, "profit": 0.4,
	"strong": 0.3, "faster": 0.3, "efficient": 0.3, "upgrade": 0.4,
}

var negativeWords = map[string]float64{
	"lawsuit": 0.6, "ban": 0.5, "fail": 0.5, "risk": 0.4,
	"concern": 0.3, "layoff": 0.6, "decline": 0.5, "loss": 0.4,
	"breach": 0.7, "scam": 0.8, "fraud": 0.8, "warning": 0.4,
	"threat": 0.5, "crash": 0.7, "investigation": 0.4, "bias": 0.4,
	"misinformation": 0.6, "controversy": 0.5, "cut": 0.3, "vulnerability": 0.5,
}

// LexiconClassifier scores texts by weighted keyword matches.
type LexiconClassifier struct {
	// Threshold is the net score magnitude needed for a polar label.
	Threshold float64
}

// NewLexiconClassifier returns a classifier with the default threshold.
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{Threshold: 0.1}
}

// ClassifyBatch implements Classifier.
func (l *LexiconClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcomes[i] = Outcome{Result: l.Classify(text)}
	}
	return outcomes, nil
}

// Classify labels a single text.
func (l *LexiconClassifier) Classify(text string) types.SentimentResult {
	lower := strings.ToLower(text)

	pos, neg := 0.0, 0.0
	matches := 0
	for word, weight := range positiveWords {
		if strings.Contains(lower, word) {
			pos += weight
			matches++
		}
	}
	for word, weight := range negativeWords {
		if strings.Contains(lower, word) {
			neg += weight
			matches++
		}
	}

	total := pos + neg
	if matches == 0 || total == 0 {
		return types.DefaultSentiment()
	}

	// net in -1..+1, confidence grows with the number of matches
	net := (pos - neg) / total
	confidence := math.Min(float64(matches)*0.15+0.2, 0.85)
	score := math.Round((0.5+0.5*math.Abs(net)*confidence)*1e4) / 1e4

	switch {
	case net > l.Threshold:
		return types.SentimentResult{Label: types.Positive, Score: score}
	case net < -l.Threshold:
		return types.SentimentResult{Label: types.Negative, Score: score}
	default:
		return types.DefaultSentiment()
	}
}
