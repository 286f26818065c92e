package changerequest

import (
	"fmt"
	"net/http"
	"sort"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	// Fields holds per-field messages when the backend returns them; keys are
	// the backend's own paths and may need mapping before display.
	Fields map[string]any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("changerequest: HTTP %d", e.Status)
	}
	return fmt.Sprintf("changerequest: HTTP %d: %s", e.Status, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// Forbidden reports whether the caller lacked permission.
func (e *APIError) Forbidden() bool {
	return e.Status == http.StatusForbidden || e.Status == http.StatusUnauthorized
}

// FieldMessages flattens Fields into the path -> messages shape the form
// engine maps onto rendered fields.
func (e *APIError) FieldMessages() map[string][]string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Fields))
	for key, raw := range e.Fields {
		switch v := raw.(type) {
		case string:
			out[key] = []string{v}
		case []any:
			for _, item := range v {
				out[key] = append(out[key], fmt.Sprint(item))
			}
		case []string:
			out[key] = append([]string(nil), v...)
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				out[key] = append(out[key], fmt.Sprint(v[k]))
			}
		default:
			out[key] = []string{fmt.Sprint(v)}
		}
	}
	return out
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Errors  map[string]any `json:"errors"`
}
