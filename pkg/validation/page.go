package validation

import (
	"errors"

	"github.com/alpaka/formengine/pkg/schema"
)

// PageResult reports whether a page definition loads cleanly.
type PageResult struct {
	Valid    bool     `json:"valid"`
	Issues   []Issue  `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidatePage parses raw as a page definition and collects load errors and
// warnings without building a document.
func ValidatePage(raw []byte, source string) PageResult {
	page, err := schema.Parse(raw, source)
	if err != nil {
		return PageResult{Issues: []Issue{issueFromError(source, err)}}
	}
	return PageResult{Valid: true, Warnings: schema.Warnings(page)}
}

func issueFromError(source string, err error) Issue {
	issue := Issue{Path: source, Rule: "schema", Message: err.Error()}
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) && loadErr.Err != nil {
		issue.Message = loadErr.Err.Error()
	}
	return issue
}
