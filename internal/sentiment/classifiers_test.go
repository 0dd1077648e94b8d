package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/news-pipeline/internal/llm"
	"github.com/jonathan/news-pipeline/internal/schemas"
	"github.com/jonathan/news-pipeline/internal/types"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
	closed   bool
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) Close() error {
	f.closed = true
	return nil
}

func TestGeminiClassifier_ParsesResults(t *testing.T) {
	client := &fakeLLM{response: `{"results": [
		{"index": 1, "label": "negative", "score": 0.88},
		{"index": 0, "label": "POSITIVE", "score": 0.97},
		{"index": 0, "label": "NEGATIVE", "score": 0.10}
	]}`}
	classifier := NewGeminiClassifier(client, nil)

	out, err := classifier.ClassifyBatch(context.Background(), []string{"Great launch", "Data breach", "Earnings call"})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, types.SentimentResult{Label: types.Positive, Score: 0.97}, out[0].Result, "first entry per index wins")
	assert.Equal(t, types.SentimentResult{Label: types.Negative, Score: 0.88}, out[1].Result)
	assert.ErrorIs(t, out[2].Err, ErrMissingResult)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], `["Great launch","Data breach","Earnings call"]`)

	require.NoError(t, classifier.Close())
	assert.True(t, client.closed)
}

func TestGeminiClassifier_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"request error", "", errors.New("quota exceeded")},
		{"not json", "sorry, no", nil},
		{"schema violation", `{"results": [{"index": 0, "label": "POSITIVE", "score": 3}]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewGeminiClassifier(&fakeLLM{response: tt.response, err: tt.err}, nil)
			out, err := classifier.ClassifyBatch(context.Background(), []string{"x"})
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestGeminiClassifier_SchemaViolationIsValidationError(t *testing.T) {
	classifier := NewGeminiClassifier(&fakeLLM{response: `{"results": "nope"}`}, nil)
	_, err := classifier.ClassifyBatch(context.Background(), []string{"x"})

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGeminiClassifier_WindowFailureThroughScorer(t *testing.T) {
	scorer := NewScorerWithClassifier(NewGeminiClassifier(&fakeLLM{err: errors.New("503")}, nil), Options{}, nil)
	out := scorer.Score(context.Background(), []string{"a", "", "b"})

	require.Len(t, out, 3)
	for _, r := range Resolve(out) {
		assert.Equal(t, types.DefaultSentiment(), r)
	}
}

func TestLexiconClassifier(t *testing.T) {
	l := NewLexiconClassifier()

	positive := l.Classify("A breakthrough model promises faster, more efficient inference")
	assert.Equal(t, types.Positive, positive.Label)
	assert.Greater(t, positive.Score, 0.5)
	assert.LessOrEqual(t, positive.Score, 1.0)

	negative := l.Classify("Regulators open an investigation after a data breach and fraud claims")
	assert.Equal(t, types.Negative, negative.Label)
	assert.Greater(t, negative.Score, 0.5)

	assert.Equal(t, types.DefaultSentiment(), l.Classify("The committee met on Tuesday"))
}

func TestLexiconClassifier_Deterministic(t *testing.T) {
	l := NewLexiconClassifier()
	text := "Record growth despite layoff concerns"
	first := l.Classify(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, l.Classify(text))
	}
}

func TestLexiconClassifier_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLexiconClassifier().ClassifyBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
