package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  string
	}{
		{name: "plain", table: "news_articles", want: `"news_articles"`},
		{name: "schema qualified", table: "analytics.news_articles", want: `"analytics"."news_articles"`},
		{name: "quotes escaped", table: `bad"name`, want: `"bad""name"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TableIdentifier(tt.table).Sanitize())
		})
	}
}

func TestArticlesTableDDL(t *testing.T) {
	ddl := articlesTableDDL("analytics.news")

	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "analytics"."news"`)
	assert.Contains(t, ddl, `"publishedAt"   TEXT`)
	assert.Contains(t, ddl, "sentiment_score DOUBLE PRECISION")
	assert.Contains(t, ddl, "sentiment_value INTEGER")
}

func TestRunType(t *testing.T) {
	run := Run{
		Source: "newsapi",
		Sink:   "postgres",
		Status: RunStatusRunning,
	}

	assert.Equal(t, "newsapi", run.Source)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
	assert.Nil(t, run.ErrorMessage)
}
