package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/types"
)

func scored(title, source string, label types.SentimentLabel, value int) types.ScoredArticle {
	return types.ScoredArticle{
		EnrichedArticle: types.EnrichedArticle{
			Title:       types.StringPtr(title),
			URL:         "https://example.com/" + source,
			PublishedAt: "2024-05-01 10:00:00",
			Source:      source,
		},
		SentimentLabel: label,
		SentimentScore: 0.9,
		SentimentValue: value,
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "pads", in: "abc", width: 6, want: "abc   "},
		{name: "exact", in: "abcdef", width: 6, want: "abcdef"},
		{name: "truncates", in: "abcdefghij", width: 6, want: "abc..."},
		{name: "collapses whitespace", in: "a\n  b\tc", width: 5, want: "a b c"},
		{name: "wide runes", in: "日本語のニュース", width: 8, want: "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fit(tt.in, tt.width)
			assert.Equal(t, tt.width, runewidth.StringWidth(got))
			assert.Equal(t, strings.TrimRight(tt.want, " "), strings.TrimRight(got, " "))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary(&pipeline.Summary{
		RunID:        "run-42",
		Source:       "newsapi",
		Sink:         "postgres",
		Mode:         "replace",
		Fetched:      10,
		Deduplicated: 2,
		Rows:         8,
		Written:      8,
		Degraded:     pipeline.Degraded{Content: 1},
		Duration:     1500 * time.Millisecond,
	})
	output := buf.String()

	assert.Contains(t, output, "PIPELINE RUN SUMMARY")
	assert.Contains(t, output, "run-42")
	assert.Contains(t, output, "postgres (replace)")
	assert.Contains(t, output, "2 duplicates")
	assert.Contains(t, output, "1 content, 0 sentiment")
	assert.Contains(t, output, "1.5s")
}

func TestPrintSummary_NoDegradedLineWhenClean(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(&pipeline.Summary{RunID: "r"})
	assert.NotContains(t, buf.String(), "Degraded")
}

func TestPrintSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintArticles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	rows := []types.ScoredArticle{
		scored("Markets rally on strong earnings", "Reuters", types.Positive, 1),
		scored("東京の株式市場が大幅に下落しました、投資家は慎重な姿勢", "NHK", types.Negative, -1),
		scored("Weather update", "BBC News", types.Neutral, 0),
	}

	p.PrintArticles(rows, 2)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[0], "VALUE")
	assert.Contains(t, lines[2], "Markets rally")
	assert.Contains(t, lines[2], "POSITIVE")
	assert.Contains(t, lines[3], "...")
	assert.Contains(t, lines[3], "-1")
	assert.Equal(t, "... and 1 more", lines[4])

	// Wide titles keep the columns aligned.
	assert.Equal(t,
		runewidth.StringWidth(lines[2][:strings.Index(lines[2], "Reuters")]),
		runewidth.StringWidth(lines[3][:strings.Index(lines[3], "NHK")]))
}

func TestPrintArticles_DefaultLimitAndNilTitle(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	rows := make([]types.ScoredArticle, 7)
	for i := range rows {
		rows[i] = scored("t", "src", types.Neutral, 0)
	}
	rows[0].Title = nil

	p.PrintArticles(rows, 0)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	assert.Len(t, lines, 2+DefaultPreviewRows+1)
	assert.Contains(t, lines[len(lines)-1], "and 2 more")
}
