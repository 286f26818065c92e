package validation

import (
	"sort"
	"strings"
)

// ErrorMap associates concrete field paths with a single message each. An
// empty map means the document is valid.
type ErrorMap map[string]string

// Clone returns an independent copy.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Without returns a copy that omits path.
func (m ErrorMap) Without(path string) ErrorMap {
	out := m.Clone()
	delete(out, path)
	return out
}

// WithoutPrefix returns a copy that omits path and every path below it.
func (m ErrorMap) WithoutPrefix(path string) ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		if k == path || strings.HasPrefix(k, path+".") {
			continue
		}
		out[k] = v
	}
	return out
}

// Paths lists the failing paths in lexical order.
func (m ErrorMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for k := range m {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// Issue is one failed rule with its location.
type Issue struct {
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result captures a validation run for API responses and CLI output.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors ErrorMap `json:"errors"`
	Issues []Issue  `json:"issues,omitempty"`
}
