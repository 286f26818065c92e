package render

import (
	"context"

	theme "github.com/goliatone/go-theme"
)

// Renderer turns a projected View into bytes (HTML, JSON, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}

// RenderOptions carries per-request data that does not belong in the View.
type RenderOptions struct {
	// Action and Method target the form submission endpoint.
	Action string
	Method string
	// Hidden emits extra inputs such as the change request id or a CSRF token.
	Hidden map[string]string
	// FormErrors are page-level messages shown above the fields.
	FormErrors []string
	// Theme supplies tokens, CSS variables, and asset URLs.
	Theme *theme.RendererConfig
}
