// Package content extracts the readable body text of news article pages.
package content

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultMaxLength is the number of characters kept before the ellipsis is appended.
const DefaultMaxLength = 1000

// Ellipsis marks truncated content.
const Ellipsis = "..."

// ExtractText applies the tiered extraction to an HTML document:
// paragraphs first, then the first article element, then the first main
// element or div.content/div.article. An element with no child nodes does not
// count as a match. It returns "" when no tier yields text.
func ExtractText(doc *goquery.Document) string {
	if text := paragraphText(doc); text != "" {
		return text
	}

	if article := doc.Find("article").First(); article.Length() > 0 && article.Contents().Length() > 0 {
		return strippedText(article)
	}

	if main := doc.Find("main").First(); main.Length() > 0 && main.Contents().Length() > 0 {
		return strippedText(main)
	}
	if div := doc.Find("div.content, div.article").First(); div.Length() > 0 {
		return strippedText(div)
	}
	return ""
}

// ExtractHTML parses raw HTML and applies ExtractText.
func ExtractHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	return ExtractText(doc), nil
}

// paragraphText joins the trimmed text of every non-empty <p> with single spaces.
func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// strippedText concatenates every trimmed, non-empty text node under the selection with no separator.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// Truncate cuts text longer than maxLen characters to exactly maxLen characters
// and appends an ellipsis. Shorter text is returned unchanged.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + Ellipsis
}

// extractFromHTML runs the tiers on a fetched body, honouring cancellation between parse and walk.
func extractFromHTML(ctx context.Context, url, raw string) (string, error) {
	text, err := ExtractHTML(raw)
	if err != nil {
		return "", &ParseError{URL: url, Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}
