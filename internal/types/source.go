package types

import (
	"encoding/json"
	"fmt"
)

// SourceKind distinguishes how an upstream record expressed its source.
type SourceKind int

const (
	// SourceAbsent means the source was missing or null.
	SourceAbsent SourceKind = iota
	// SourceObject means the source was a structured {id, name} object.
	SourceObject
	// SourceString means the source was a plain string.
	SourceString
	// SourceOther means the source was some other JSON value.
	SourceOther
)

// Source is the publisher of an article. Upstream records carry it either as an
// object with a name field or as a bare string.
type Source struct {
	Kind SourceKind
	// ID and Name are set for SourceObject; Name is nil when the object has no usable name.
	ID   *string
	Name *string
	// Text is set for SourceString (and holds the raw JSON for SourceOther).
	Text string
}

// NamedSource returns a structured source with the given name.
func NamedSource(name string) Source {
	return Source{Kind: SourceObject, Name: &name}
}

// TextSource returns a plain string source.
func TextSource(text string) Source {
	return Source{Kind: SourceString, Text: text}
}

// UnmarshalJSON accepts null, a string, or an object.
func (s *Source) UnmarshalJSON(data []byte) error {
	*s = Source{}
	if isNull(data) {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		s.Kind = SourceString
		s.Text = text
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		s.Kind = SourceObject
		s.ID = stringField(obj["id"])
		s.Name = stringField(obj["name"])
		return nil
	}

	if !json.Valid(data) {
		return fmt.Errorf("invalid source value: %s", string(data))
	}
	s.Kind = SourceOther
	s.Text = string(data)
	return nil
}

// MarshalJSON writes the source back in the shape it was read.
func (s Source) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SourceObject:
		return json.Marshal(map[string]*string{"id": s.ID, "name": s.Name})
	case SourceString:
		return json.Marshal(s.Text)
	case SourceOther:
		return []byte(s.Text), nil
	default:
		return []byte("null"), nil
	}
}

func stringField(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
