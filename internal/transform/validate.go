package transform

import (
	"github.com/jonathan/news-pipeline/internal/types"
)

// Validate checks that a batch is non-empty and that every required field is
// carried by at least one record. A null value counts as present.
func Validate(articles []types.RawArticle) error {
	if len(articles) == 0 {
		return ErrNoArticles
	}

	var missing []string
	for _, field := range types.RequiredFields {
		found := false
		for _, a := range articles {
			if a.Has(field) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}
