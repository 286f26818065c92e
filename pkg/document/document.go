// Package document builds and maintains the JSON-like values a form page
// edits: initial documents, per-instance templates for repeatable sections,
// normalization of stored payloads, and the payload codec.
package document

import (
	"math"

	"github.com/alpaka/formengine/pkg/docpath"
)

// Document is the root mapping edited by a form session. Values are the JSON
// data model: nil, bool, float64, string, []any, and map[string]any.
type Document = map[string]any

// Clone deep-copies doc. A nil document clones to an empty one.
func Clone(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	return CloneValue(doc).(map[string]any)
}

// CloneValue deep-copies mappings and sequences; scalars are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	default:
		return typed
	}
}

// IsEmpty reports whether a value counts as missing for required checks:
// absent, null, the empty string, an empty sequence, or NaN. false and 0 are
// values.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// InstancePaths lists the concrete paths of a section's instances. Plain
// sections have a single instance at sectionPath. Repeatable sections have one
// per sequence element; a slot that is not a sequence is treated as a single
// implicit instance at index 0.
func InstancePaths(doc Document, sectionPath string, repeatable bool) []string {
	if !repeatable {
		return []string{sectionPath}
	}
	value, _ := docpath.Get(doc, sectionPath)
	seq, ok := value.([]any)
	if !ok {
		return []string{docpath.JoinIndex(sectionPath, 0)}
	}
	paths := make([]string, len(seq))
	for i := range seq {
		paths[i] = docpath.JoinIndex(sectionPath, i)
	}
	return paths
}
