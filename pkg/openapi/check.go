package openapi

import (
	"errors"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/schema"
)

// ShapeIssue is a value whose type does not match the payload schema.
type ShapeIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CheckDocument reports values in doc whose shape the form engine would never
// write for page. It complements validation: an empty required field passes
// here and fails there.
func CheckDocument(page schema.Page, doc map[string]any) []ShapeIssue {
	err := PayloadSchema(page).VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var issues []ShapeIssue
	collectIssues(err, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}

func collectIssues(err error, issues *[]ShapeIssue) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, inner := range multi {
			collectIssues(inner, issues)
		}
		return
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		path := ""
		for _, segment := range schemaErr.JSONPointer() {
			path = docpath.Join(path, segment)
		}
		*issues = append(*issues, ShapeIssue{Path: path, Reason: schemaErr.Reason})
		return
	}
	*issues = append(*issues, ShapeIssue{Reason: err.Error()})
}
