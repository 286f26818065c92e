package render

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// JSONRenderer serializes the View itself, for API clients that draw their own
// controls.
type JSONRenderer struct{}

// NewJSONRenderer returns the JSON view renderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (JSONRenderer) Name() string        { return "json" }
func (JSONRenderer) ContentType() string { return "application/json" }

// Render encodes view together with hidden fields and form errors.
func (JSONRenderer) Render(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload := struct {
		View
		Hidden     []HiddenField `json:"hidden,omitempty"`
		FormErrors []string      `json:"formErrors,omitempty"`
	}{
		View:       view,
		Hidden:     SortedHiddenFields(options.Hidden),
		FormErrors: normalizeMessages(options.FormErrors),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("render: json: %w", err)
	}
	return data, nil
}
