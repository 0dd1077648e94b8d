package types

import "strings"

// SentimentLabel is the polarity assigned to an article.
type SentimentLabel string

// Sentiment labels.
const (
	Positive SentimentLabel = "POSITIVE"
	Negative SentimentLabel = "NEGATIVE"
	Neutral  SentimentLabel = "NEUTRAL"
)

// DefaultSentimentScore is the score of the degraded NEUTRAL result.
const DefaultSentimentScore = 0.5

// SentimentResult is a single classification.
type SentimentResult struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// DefaultSentiment is substituted for blank texts and failed classifications.
func DefaultSentiment() SentimentResult {
	return SentimentResult{Label: Neutral, Score: DefaultSentimentScore}
}

// ParseSentimentLabel normalises a classifier label (case and surrounding space).
// The returned bool is false for labels outside POSITIVE/NEGATIVE/NEUTRAL.
func ParseSentimentLabel(raw string) (SentimentLabel, bool) {
	label := SentimentLabel(strings.ToUpper(strings.TrimSpace(raw)))
	switch label {
	case Positive, Negative, Neutral:
		return label, true
	default:
		return label, false
	}
}

// LabelValue maps a label to its signed value: POSITIVE=1, NEGATIVE=-1, NEUTRAL=0.
// The bool is false for unrecognized labels, which map to 0.
func LabelValue(label SentimentLabel) (int, bool) {
	switch label {
	case Positive:
		return 1, true
	case Negative:
		return -1, true
	case Neutral:
		return 0, true
	default:
		return 0, false
	}
}
