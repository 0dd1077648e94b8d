// Package types provides type definitions for the article records that flow through the news pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field names as they appear in upstream article records.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldURL         = "url"
	FieldPublishedAt = "publishedAt"
	FieldSource      = "source"
	FieldURLToImage  = "urlToImage"
	FieldAuthor      = "author"
	FieldContent     = "content"
)

// RequiredFields lists the fields every input batch must carry, in reporting order.
var RequiredFields = []string{FieldTitle, FieldDescription, FieldURL, FieldPublishedAt}

// RawArticle is an unprocessed article record as supplied by a source.
// Description, URLToImage, Author and Content are nullable upstream.
type RawArticle struct {
	Title       string
	Description *string
	URL         string
	PublishedAt string
	Source      Source
	URLToImage  *string
	Author      *string
	Content     *string

	// keys records which fields were present in the decoded record.
	// A nil set means the article was built in code and carries every field.
	keys map[string]bool
}

// NewRawArticle builds a RawArticle that carries all required fields.
func NewRawArticle(title string, description *string, url, publishedAt string, source Source) RawArticle {
	return RawArticle{
		Title:       title,
		Description: description,
		URL:         url,
		PublishedAt: publishedAt,
		Source:      source,
	}
}

// Has reports whether the record carried the named field, even if its value was null.
func (a RawArticle) Has(field string) bool {
	if a.keys == nil {
		return true
	}
	return a.keys[field]
}

// DropImage removes the optional urlToImage field.
func (a *RawArticle) DropImage() {
	a.URLToImage = nil
	if a.keys != nil {
		delete(a.keys, FieldURLToImage)
	}
}

// DescriptionKey returns the description as a comparable key; null and empty are the same key.
func (a RawArticle) DescriptionKey() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// UnmarshalJSON decodes a loosely typed upstream record. Non-string values for text
// fields are kept as their JSON text, except url, which is left empty so the
// extractor reports it as invalid.
func (a *RawArticle) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode article: %w", err)
	}

	*a = RawArticle{keys: make(map[string]bool, len(fields))}
	for key := range fields {
		a.keys[key] = true
	}

	a.Title = looseString(fields[FieldTitle])
	a.Description = nullableString(fields[FieldDescription])
	a.PublishedAt = looseString(fields[FieldPublishedAt])
	a.URLToImage = nullableString(fields[FieldURLToImage])
	a.Author = nullableString(fields[FieldAuthor])
	a.Content = nullableString(fields[FieldContent])

	if raw, ok := fields[FieldURL]; ok {
		var url string
		if err := json.Unmarshal(raw, &url); err == nil {
			a.URL = url
		}
	}

	if raw, ok := fields[FieldSource]; ok {
		if err := json.Unmarshal(raw, &a.Source); err != nil {
			return fmt.Errorf("failed to decode article source: %w", err)
		}
	}

	return nil
}

// MarshalJSON encodes the record with its upstream field names.
func (a RawArticle) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		FieldTitle:       a.Title,
		FieldDescription: a.Description,
		FieldURL:         a.URL,
		FieldPublishedAt: a.PublishedAt,
		FieldSource:      a.Source,
	}
	if a.URLToImage != nil {
		out[FieldURLToImage] = *a.URLToImage
	}
	if a.Author != nil {
		out[FieldAuthor] = *a.Author
	}
	if a.Content != nil {
		out[FieldContent] = *a.Content
	}
	return json.Marshal(out)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func looseString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func nullableString(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	s := looseString(raw)
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// EnrichedArticle is a deduplicated article with a normalised source, a best-effort
// date and the extracted page text.
type EnrichedArticle struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Source      string  `json:"source"`
	FullContent string  `json:"full_content"`
}

// ScoredArticle is one output row of the pipeline.
type ScoredArticle struct {
	EnrichedArticle
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	SentimentScore float64        `json:"sentiment_score"`
	SentimentValue int            `json:"sentiment_value"`
}

// Columns is the fixed output schema, in order.
var Columns = []string{
	"title",
	"description",
	"url",
	"publishedAt",
	"source",
	"full_content",
	"sentiment_label",
	"sentiment_score",
	"sentiment_value",
}

// Row returns the article's values in Columns order. A null description is nil.
func (s ScoredArticle) Row() []any {
	var description any
	if s.Description != nil {
		description = *s.Description
	}
	return []any{
		s.Title,
		description,
		s.URL,
		s.PublishedAt,
		s.Source,
		s.FullContent,
		string(s.SentimentLabel),
		s.SentimentScore,
		s.SentimentValue,
	}
}

// Record returns the article keyed by column name.
func (s ScoredArticle) Record() map[string]any {
	row := s.Row()
	record := make(map[string]any, len(Columns))
	for i, col := range Columns {
		record[col] = row[i]
	}
	return record
}
