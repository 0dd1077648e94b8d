// Package observability provides formatted output utilities for the CLI preview.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// DefaultPreviewRows is the number of rows PrintArticles shows when limit <= 0
	DefaultPreviewRows = 5
	ellipsis           = "..."
)

// column widths for the article table, in terminal cells
var articleColumns = []struct {
	header string
	width  int
}{
	{"TITLE", 40},
	{"SOURCE", 16},
	{"PUBLISHED", 19},
	{"LABEL", 8},
	{"VALUE", 5},
}

// Printer handles formatted output for the CLI preview
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// fit truncates or pads s to exactly width terminal cells.
func fit(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, ellipsis)
	}
	return runewidth.FillRight(s, width)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", fit(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", fit(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSummary outputs the counters of a finished run.
func (p *Printer) PrintSummary(summary *pipeline.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:       %s\n", summary.RunID)
	fmt.Fprintf(&sb, "Source:    %s\n", summary.Source)
	fmt.Fprintf(&sb, "Sink:      %s (%s)\n", summary.Sink, summary.Mode)
	fmt.Fprintf(&sb, "Fetched:   %d\n", summary.Fetched)
	fmt.Fprintf(&sb, "Dropped:   %d duplicates\n", summary.Deduplicated)
	fmt.Fprintf(&sb, "Rows:      %d\n", summary.Rows)
	fmt.Fprintf(&sb, "Written:   %d\n", summary.Written)
	if summary.Degraded.Content > 0 || summary.Degraded.Sentiment > 0 {
		fmt.Fprintf(&sb, "Degraded:  %d content, %d sentiment\n", summary.Degraded.Content, summary.Degraded.Sentiment)
	}
	fmt.Fprintf(&sb, "Duration:  %s", summary.Duration.Round(time.Millisecond))

	p.printBox("PIPELINE RUN SUMMARY", sb.String())
}

// PrintArticles outputs up to limit rows as a fixed-width table.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintArticles(rows []types.ScoredArticle, limit int) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	header := make([]string, len(articleColumns))
	rule := make([]string, len(articleColumns))
	for i, col := range articleColumns {
		header[i] = fit(col.header, col.width)
		rule[i] = strings.Repeat("─", col.width)
	}
	fmt.Fprintln(p.out, strings.Join(header, "  "))
	fmt.Fprintln(p.out, strings.Join(rule, "  "))

	count := min(len(rows), limit)
	for _, row := range rows[:count] {
		title := ""
		if row.Title != nil {
			title = *row.Title
		}
		cells := []string{
			title,
			row.Source,
			row.PublishedAt,
			string(row.SentimentLabel),
			fmt.Sprintf("%d", row.SentimentValue),
		}
		for i, col := range articleColumns {
			cells[i] = fit(cells[i], col.width)
		}
		fmt.Fprintln(p.out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	if len(rows) > count {
		fmt.Fprintf(p.out, "... and %d more\n", len(rows)-count)
	}
}
