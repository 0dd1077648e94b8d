package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

// fakeClassifier labels texts by prefix: "good" POSITIVE, "bad" NEGATIVE,
// "odd" an unknown label, "fail" a per-text error, anything else NEUTRAL.
type fakeClassifier struct {
	calls      [][]string
	failCall   int // 1-based call number that fails as a whole; 0 never
	dropLast   bool
	extraEntry bool
}

func (f *fakeClassifier) ClassifyBatch(_ context.Context, texts []string) ([]Outcome, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.failCall == len(f.calls) {
		return nil, errors.New("model exploded")
	}

	out := make([]Outcome, 0, len(texts))
	for _, text := range texts {
		switch {
		case strings.HasPrefix(text, "good"):
			out = append(out, Outcome{Result: types.SentimentResult{Label: types.Positive, Score: 0.99}})
		case strings.HasPrefix(text, "bad"):
			out = append(out, Outcome{Result: types.SentimentResult{Label: "negative", Score: 0.95}})
		case strings.HasPrefix(text, "odd"):
			out = append(out, Outcome{Result: types.SentimentResult{Label: "LABEL_7", Score: 0.7}})
		case strings.HasPrefix(text, "fail"):
			out = append(out, Outcome{Err: errors.New("text too weird")})
		default:
			out = append(out, Outcome{Result: types.SentimentResult{Label: types.Neutral, Score: 0.8}})
		}
	}
	if f.dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	if f.extraEntry {
		out = append(out, Outcome{Result: types.SentimentResult{Label: types.Positive, Score: 1}})
	}
	return out, nil
}

func newTestScorer(c Classifier, batchSize int) *Scorer {
	return NewScorerWithClassifier(c, Options{Backend: "fake", BatchSize: batchSize}, zap.NewNop())
}

func TestScore_LengthAlwaysMatchesInput(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		fake  *fakeClassifier
	}{
		{"empty", nil, &fakeClassifier{}},
		{"all blank", []string{"", "  ", "\n\t"}, &fakeClassifier{}},
		{"mixed", []string{"good news", "", "bad news", "fail here", "plain"}, &fakeClassifier{}},
		{"window failure", []string{"good", "bad", "good", "bad", "x"}, &fakeClassifier{failCall: 1}},
		{"short response", []string{"good", "bad", "plain"}, &fakeClassifier{dropLast: true}},
		{"long response", []string{"good", "bad"}, &fakeClassifier{extraEntry: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, batch := range []int{1, 2, 3, 32} {
				out := newTestScorer(tt.fake, batch).Score(context.Background(), tt.texts)
				assert.Len(t, out, len(tt.texts), "batch %d", batch)
			}
		})
	}
}

func TestScore_AlignsResultsWithBlanksAndErrors(t *testing.T) {
	fake := &fakeClassifier{}
	texts := []string{"good news", "", "bad news", "fail here", "   ", "plain"}

	out := newTestScorer(fake, 32).Score(context.Background(), texts)
	results := Resolve(out)

	assert.Equal(t, types.SentimentResult{Label: types.Positive, Score: 0.99}, results[0])
	assert.Equal(t, types.DefaultSentiment(), results[1])
	assert.Equal(t, types.SentimentResult{Label: types.Negative, Score: 0.95}, results[2], "labels are normalized")
	assert.Equal(t, types.DefaultSentiment(), results[3])
	assert.True(t, out[3].Degraded())
	assert.Equal(t, types.DefaultSentiment(), results[4])
	assert.False(t, out[4].Degraded(), "blank text is not a failure")
	assert.Equal(t, types.SentimentResult{Label: types.Neutral, Score: 0.8}, results[5])

	require.Len(t, fake.calls, 1, "one classifier call per window")
	assert.Equal(t, []string{"good news", "bad news", "fail here", "plain"}, fake.calls[0])
}

func TestScore_FortyTextsEightBlanks(t *testing.T) {
	fake := &fakeClassifier{}
	texts := make([]string, 40)
	blanks := map[int]bool{0: true, 5: true, 13: true, 31: true, 32: true, 35: true, 38: true, 39: true}
	for i := range texts {
		if blanks[i] {
			texts[i] = " "
			continue
		}
		texts[i] = fmt.Sprintf("good story %d", i)
	}

	out := newTestScorer(fake, 32).Score(context.Background(), texts)

	require.Len(t, out, 40)
	require.Len(t, fake.calls, 2)
	assert.Len(t, fake.calls[0], 28)
	assert.Len(t, fake.calls[1], 4)
	for i, o := range out {
		if blanks[i] {
			assert.Equal(t, types.DefaultSentiment(), o.Resolve(), "blank %d", i)
		} else {
			assert.Equal(t, types.Positive, o.Resolve().Label, "text %d", i)
		}
	}
}

func TestScore_SecondWindowFailure(t *testing.T) {
	fake := &fakeClassifier{failCall: 2}
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "good " + fmt.Sprint(i)
	}

	out := newTestScorer(fake, 32).Score(context.Background(), texts)
	require.Len(t, out, 40)

	for i := 0; i < 32; i++ {
		assert.Equal(t, types.Positive, out[i].Resolve().Label)
		assert.False(t, out[i].Degraded())
	}
	for i := 32; i < 40; i++ {
		assert.Equal(t, types.DefaultSentiment(), out[i].Resolve())
		var windowErr *WindowError
		require.ErrorAs(t, out[i].Err, &windowErr)
		assert.Equal(t, 1, windowErr.Window)
	}
}

func TestScore_TruncatesTexts(t *testing.T) {
	fake := &fakeClassifier{}
	long := "good " + strings.Repeat("ü", 700)

	newTestScorer(fake, 32).Score(context.Background(), []string{long, "good short"})

	require.Len(t, fake.calls, 1)
	assert.Equal(t, 512, utf8.RuneCountInString(fake.calls[0][0]))
	assert.Equal(t, "good short", fake.calls[0][1])
}

func TestScore_ShortClassifierResponseIsPadded(t *testing.T) {
	fake := &fakeClassifier{dropLast: true}
	out := newTestScorer(fake, 32).Score(context.Background(), []string{"good", "bad", "good"})

	require.Len(t, out, 3)
	assert.Equal(t, types.Positive, out[0].Resolve().Label)
	assert.Equal(t, types.Negative, out[1].Resolve().Label)
	assert.ErrorIs(t, out[2].Err, ErrMissingResult)
	assert.Equal(t, types.DefaultSentiment(), out[2].Resolve())
}

func TestScore_UnknownLabelBecomesNeutral(t *testing.T) {
	out := newTestScorer(&fakeClassifier{}, 32).Score(context.Background(), []string{"odd one"})

	require.Len(t, out, 1)
	var labelErr *UnknownLabelError
	require.ErrorAs(t, out[0].Err, &labelErr)
	assert.Equal(t, "LABEL_7", labelErr.Label)
	assert.Equal(t, types.DefaultSentiment(), out[0].Resolve())
	assert.Equal(t, 0, out[0].Value())
}

func TestOutcome_Value(t *testing.T) {
	assert.Equal(t, 1, Outcome{Result: types.SentimentResult{Label: types.Positive}}.Value())
	assert.Equal(t, -1, Outcome{Result: types.SentimentResult{Label: types.Negative}}.Value())
	assert.Equal(t, 0, Outcome{Result: types.SentimentResult{Label: types.Neutral}}.Value())
	assert.Equal(t, 0, Outcome{Err: errors.New("x"), Result: types.SentimentResult{Label: types.Positive}}.Value())
}

func TestNewScorer_InitFailureIsFatal(t *testing.T) {
	init := func(context.Context) (Classifier, error) {
		return nil, errors.New("model weights missing")
	}

	scorer, err := NewScorer(context.Background(), init, Options{Backend: "fake"}, zap.NewNop())
	assert.Nil(t, scorer)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "fake", initErr.Backend)
	assert.True(t, IsInitError(err))
	assert.Contains(t, err.Error(), "model weights missing")
}

func TestNewScorer_Defaults(t *testing.T) {
	init := func(context.Context) (Classifier, error) { return &fakeClassifier{}, nil }
	scorer, err := NewScorer(context.Background(), init, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, scorer.opts.BatchSize)
	assert.Equal(t, DefaultMaxChars, scorer.opts.MaxChars)
	assert.NoError(t, scorer.Close())
}

func TestNewInitializer(t *testing.T) {
	init, err := NewInitializer(BackendOptions{Backend: "lexicon"}, nil)
	require.NoError(t, err)
	classifier, err := init(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &LexiconClassifier{}, classifier)

	_, err = NewInitializer(BackendOptions{Backend: "distilbert"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	init, err = NewInitializer(BackendOptions{Backend: "gemini"}, nil)
	require.NoError(t, err)
	_, err = NewScorer(context.Background(), init, Options{Backend: "gemini"}, nil)
	assert.True(t, IsInitError(err), "missing API key fails initialization")
}
