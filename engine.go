// Package formengine wires the schema loader, session, and renderer packages
// into a small entry point for applications that embed the form engine.
package formengine

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/alpaka/formengine/internal/schemaloader"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/renderers/tui"
	"github.com/alpaka/formengine/pkg/renderers/vanilla"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/session"
)

// DefaultFetchTimeout bounds remote page fetches when no HTTP client is
// supplied.
const DefaultFetchTimeout = 15 * time.Second

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return schemaloader.New(schema.NewLoaderOptions(options...))
}

// LoadPage resolves raw as a file path or http(s) URL and parses the page
// behind it. An empty raw value yields the bundled API gateway page.
func LoadPage(ctx context.Context, raw string, options ...schema.LoaderOption) (schema.Page, error) {
	if strings.TrimSpace(raw) == "" {
		return schema.DefaultPage()
	}
	src, err := schema.ParseSource(raw)
	if err != nil {
		return schema.Page{}, err
	}
	options = append([]schema.LoaderOption{schema.WithHTTPFallback(DefaultFetchTimeout)}, options...)
	return NewLoader(options...).Load(ctx, src)
}

// NewSession starts an editing session for page. A non-empty payload is a
// stored config_changes_payload and is loaded instead of a blank document.
func NewSession(page schema.Page, payload string, options ...session.Option) *session.Session {
	if strings.TrimSpace(payload) == "" {
		return session.New(page, options...)
	}
	return session.Load(page, payload, options...)
}

// NewRegistry returns a registry holding the built-in renderers: vanilla HTML,
// JSON, and the plain-text summary used by the terminal editor.
func NewRegistry(options ...vanilla.Option) (*render.Registry, error) {
	html, err := vanilla.New(options...)
	if err != nil {
		return nil, fmt.Errorf("formengine: vanilla renderer: %w", err)
	}
	registry := render.NewRegistry()
	for _, renderer := range []render.Renderer{html, render.NewJSONRenderer(), tui.New()} {
		if err := registry.Register(renderer); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Render projects the session and renders it with the named renderer.
func Render(ctx context.Context, registry *render.Registry, name string, s *session.Session, options render.RenderOptions) ([]byte, error) {
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	if len(options.FormErrors) == 0 {
		options.FormErrors = s.FormErrors()
	}
	return renderer.Render(ctx, s.View(), options)
}

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// ThemeConfig resolves name/variant through selector and flattens the
// selection into the renderer configuration carried by RenderOptions.Theme.
// Variant tokens and templates override the manifest's.
func ThemeConfig(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("formengine: select theme %q: %w", name, err)
	}
	if selection == nil {
		return nil, nil
	}

	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   map[string]string{},
		Partials: map[string]string{},
		CSSVars:  map[string]string{},
	}
	manifest := selection.Manifest
	if manifest == nil {
		return cfg, nil
	}

	mergeInto(cfg.Tokens, manifest.Tokens)
	mergeInto(cfg.Partials, manifest.Templates)
	files := map[string]string{}
	mergeInto(files, manifest.Assets.Files)
	if v, ok := manifest.Variants[selection.Variant]; ok {
		mergeInto(cfg.Tokens, v.Tokens)
		mergeInto(cfg.Partials, v.Templates)
		mergeInto(files, v.Assets.Files)
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}

	prefix := manifest.Assets.Prefix
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok {
			return ""
		}
		if prefix == "" {
			return file
		}
		return path.Join(prefix, file)
	}
	return cfg, nil
}

func mergeInto(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}
