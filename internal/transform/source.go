package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/news-pipeline/internal/types"
)

// UnknownSource is used when an article's publisher cannot be determined.
const UnknownSource = "Unknown"

var (
	// dictLiteral matches a string that opens like a mapping with a quoted first key.
	dictLiteral = regexp.MustCompile(`^\{\s*(?:'[^']*'|"[^"]*")\s*:`)
	// nameEntry finds the name entry of a JSON or Python-style mapping literal.
	nameEntry = regexp.MustCompile(`['"]name['"]\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"|(None|null))`)
)

// SourceName normalizes an article source to a plain publisher name.
func SourceName(src types.Source) string {
	switch src.Kind {
	case types.SourceObject:
		if src.Name == nil || strings.TrimSpace(*src.Name) == "" {
			return UnknownSource
		}
		return *src.Name
	case types.SourceString:
		return sourceNameFromString(src.Text)
	default:
		return UnknownSource
	}
}

// sourceNameFromString handles sources that arrived as text, including
// serialized mappings such as "{'id': None, 'name': 'Wired'}".
func sourceNameFromString(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return UnknownSource
	}
	if !strings.HasSuffix(trimmed, "}") || !dictLiteral.MatchString(trimmed) {
		return text
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		name, ok := obj["name"]
		if !ok || name == nil {
			return UnknownSource
		}
		if s, isString := name.(string); isString {
			return s
		}
		return fmt.Sprint(name)
	}

	m := nameEntry.FindStringSubmatch(trimmed)
	if m == nil || m[3] != "" {
		return UnknownSource
	}
	if m[1] != "" {
		return unescapeLiteral(m[1])
	}
	return unescapeLiteral(m[2])
}

func unescapeLiteral(s string) string {
	return strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\\`, `\`).Replace(s)
}
