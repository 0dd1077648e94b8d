package sentiment

import (
	"github.com/jonathan/news-pipeline/internal/types"
)

// Outcome is the classification of one text, or the reason it has none.
type Outcome struct {
	Result types.SentimentResult
	Err    error
}

// Degraded reports whether the outcome carries a failure.
func (o Outcome) Degraded() bool {
	return o.Err != nil
}

// Resolve returns the classification, substituting the NEUTRAL default for failures.
func (o Outcome) Resolve() types.SentimentResult {
	if o.Err != nil {
		return types.DefaultSentiment()
	}
	return o.Result
}

// Value returns the signed sentiment value of the resolved label.
func (o Outcome) Value() int {
	v, _ := types.LabelValue(o.Resolve().Label)
	return v
}

// Resolve converts a slice of outcomes to results, in order.
func Resolve(outcomes []Outcome) []types.SentimentResult {
	results := make([]types.SentimentResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Resolve()
	}
	return results
}
