package transform

import (
	"strings"
	"time"
)

// DateLayout is the output format of publishedAt.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when reformatting publishedAt.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateLayout,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
}

// FormatDate reformats a timestamp as YYYY-MM-DD in the value's own offset.
// The bool is false when no known layout matched; the input is then returned unchanged.
func FormatDate(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return raw, false
}
