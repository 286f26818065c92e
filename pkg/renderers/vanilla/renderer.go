// Package vanilla renders form views as plain server-side HTML through the
// template seam (pongo2 by default). Repeatable sections post "_action" buttons (add:<path> and
// remove:<path>:<index>) so the page works without JavaScript.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/alpaka/formengine/pkg/render"
	rendertemplate "github.com/alpaka/formengine/pkg/render/template"
	"github.com/alpaka/formengine/pkg/render/template/gotemplate"
)

const formTemplate = "templates/form.tmpl"

// ActionField is the name of the submit button that carries instance actions.
const ActionField = "_action"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	stylesheets  []string
	inlineStyles bool
	submitLabel  string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must contain templates/form.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation. It
// takes precedence over WithTemplatesFS and WithTemplatesDir.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheet links an external stylesheet.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(href); trimmed != "" {
			cfg.stylesheets = append(cfg.stylesheets, trimmed)
		}
	}
}

// WithDefaultStyles inlines the bundled stylesheet.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

// WithSubmitLabel changes the text of the submit button.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			cfg.submitLabel = trimmed
		}
	}
}

type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	stylesheets []string
	inlineCSS   string
	submitLabel string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), submitLabel: "Submit"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	r := &Renderer{
		templates:   templates,
		stylesheets: cfg.stylesheets,
		submitLabel: cfg.submitLabel,
	}
	if cfg.inlineStyles {
		r.inlineCSS = defaultStylesheet()
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type formData struct {
	Title       string               `json:"title"`
	Editable    bool                 `json:"editable"`
	Action      string               `json:"action"`
	Method      string               `json:"method"`
	Rows        []row                `json:"rows"`
	Hidden      []render.HiddenField `json:"hidden"`
	FormErrors  []string             `json:"form_errors"`
	SubmitLabel string               `json:"submit_label"`
	Stylesheets []string             `json:"stylesheets"`
	InlineCSS   string               `json:"inline_css"`
	Theme       themeData            `json:"theme"`
}

type themeData struct {
	Name       string `json:"name"`
	Variant    string `json:"variant"`
	Style      string `json:"style"`
	Stylesheet string `json:"stylesheet"`
}

func (r *Renderer) Render(ctx context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method := strings.ToLower(strings.TrimSpace(options.Method))
	if method == "" {
		method = "post"
	}
	data := formData{
		Title:       view.Title,
		Editable:    view.Editable,
		Action:      options.Action,
		Method:      method,
		Rows:        flatten(view.Blocks, 0),
		Hidden:      render.SortedHiddenFields(options.Hidden),
		FormErrors:  render.MergeFormErrors(nil, options.FormErrors...),
		SubmitLabel: r.submitLabel,
		Stylesheets: r.stylesheets,
		InlineCSS:   r.inlineCSS,
		Theme:       themeFrom(options.Theme),
	}

	out, err := r.templates.RenderTemplate(templateName(options.Theme), data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(out), nil
}

// PartialForm is the theme partial key that replaces the form template.
const PartialForm = "form"

func templateName(cfg *theme.RendererConfig) string {
	if cfg != nil {
		if name := strings.TrimSpace(cfg.Partials[PartialForm]); name != "" {
			return name
		}
	}
	return formTemplate
}

func themeFrom(cfg *theme.RendererConfig) themeData {
	if cfg == nil {
		return themeData{}
	}
	data := themeData{Name: cfg.Theme, Variant: cfg.Variant}

	keys := make([]string, 0, len(cfg.CSSVars))
	for key := range cfg.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	decls := make([]string, 0, len(keys))
	for _, key := range keys {
		name := key
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		decls = append(decls, name+": "+cfg.CSSVars[key])
	}
	data.Style = strings.Join(decls, "; ")

	if cfg.AssetURL != nil {
		data.Stylesheet = cfg.AssetURL(StylesheetName)
	}
	return data
}
