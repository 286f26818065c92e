package vanilla_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/renderers/vanilla"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/validation"
)

func defaultView(t *testing.T, editable bool, mutate func(document.Document) document.Document) render.View {
	t.Helper()
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	if mutate != nil {
		doc = mutate(doc)
	}
	errs := validation.Validate(page, doc)
	return render.Project(page, doc, errs, render.ProjectOptions{Editable: editable})
}

func renderHTML(t *testing.T, r *vanilla.Renderer, view render.View, opts render.RenderOptions) string {
	t.Helper()
	out, err := r.Render(context.Background(), view, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRenderer_RendersFieldsAndErrors(t *testing.T) {
	r, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := defaultView(t, true, func(doc document.Document) document.Document {
		doc = docpath.Set(doc, "service.upstream_url", "ftp://legacy")
		return docpath.Set(doc, "service.retries", 3.0)
	})

	html := renderHTML(t, r, view, render.RenderOptions{
		Action: "/v1/sessions/abc/form",
		Hidden: map[string]string{"cr_id": "12"},
	})

	for _, want := range []string{
		`<h1 class="fe-title">API Gateway Configuration</h1>`,
		`action="/v1/sessions/abc/form"`,
		`<input type="hidden" name="cr_id" value="12">`,
		`name="service.name"`,
		`Service Name is required`,
		`Must be a valid HTTP/HTTPS URL`,
		`type="url" id="fe-service-upstream_url" name="service.upstream_url" value="ftp://legacy"`,
		`type="number" id="fe-service-retries" name="service.retries" value="3"`,
		`<option value="https" selected>`,
		`name="routes.0.name"`,
		`value="add:routes"`,
		`data-index="0"`,
		`value="submit"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	for _, hidden := range []string{"plugins.rate_limit_per_minute", "plugins.auth_type", "plugins.cors.origin"} {
		if strings.Contains(html, `name="`+hidden+`"`) {
			t.Errorf("hidden field %s should not render", hidden)
		}
	}
	if strings.Contains(html, `value="remove:`) {
		t.Errorf("single instance must not offer remove")
	}
}

func TestRenderer_RepeatableInstances(t *testing.T) {
	r, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := defaultView(t, true, func(doc document.Document) document.Document {
		return docpath.Set(doc, "routes.1.name", "second")
	})

	html := renderHTML(t, r, view, render.RenderOptions{})
	for _, want := range []string{
		`Route 1`,
		`Route 2`,
		`value="remove:routes:0"`,
		`value="remove:routes:1"`,
		`name="routes.1.name" value="second"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderer_ReadOnly(t *testing.T) {
	r, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	html := renderHTML(t, r, defaultView(t, false, nil), render.RenderOptions{})

	if !strings.Contains(html, `name="service.name" value="" placeholder="billing-api" aria-required="true" aria-invalid="true" disabled>`) {
		t.Errorf("read-only inputs should be disabled:\n%s", html)
	}
	for _, absent := range []string{`value="add:`, `value="submit"`} {
		if strings.Contains(html, absent) {
			t.Errorf("read-only output should not contain %q", absent)
		}
	}
}

func TestRenderer_EscapesAndSanitizes(t *testing.T) {
	r, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	page := schema.Page{PageTitle: "<b>Title</b>", Elements: []schema.Node{{
		ID:   "note",
		Type: schema.NodeInput,
		Props: schema.Props{
			Label:    "Note",
			HelpText: "See **docs** <script>alert(1)</script>",
		},
	}}}
	doc := document.Document{"note": `"><script>x</script>`}
	view := render.Project(page, doc, nil, render.ProjectOptions{Editable: true})

	html := renderHTML(t, r, view, render.RenderOptions{FormErrors: []string{"<i>boom</i>"}})
	if strings.Contains(html, "<script>") {
		t.Fatalf("script tags must never reach the output:\n%s", html)
	}
	for _, want := range []string{"&lt;b&gt;Title&lt;/b&gt;", "<strong>docs</strong>", "&lt;i&gt;boom&lt;/i&gt;"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderer_Theme(t *testing.T) {
	r, err := vanilla.New(vanilla.WithDefaultStyles(), vanilla.WithStylesheet("/assets/custom.css"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	html := renderHTML(t, r, defaultView(t, true, nil), render.RenderOptions{
		Theme: &theme.RendererConfig{
			Theme:   "acme",
			Variant: "dark",
			CSSVars: map[string]string{"fe-brand": "#123456"},
			AssetURL: func(key string) string {
				return "/themes/acme/" + key
			},
		},
	})

	for _, want := range []string{
		`<style>.fe-form {`,
		`<link rel="stylesheet" href="/assets/custom.css">`,
		`<link rel="stylesheet" href="/themes/acme/formengine.css">`,
		`class="fe-form fe-theme-acme fe-variant-dark"`,
		`style="--fe-brand: #123456"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderer_Metadata(t *testing.T) {
	r, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if r.Name() != "vanilla" || !strings.HasPrefix(r.ContentType(), "text/html") {
		t.Fatalf("unexpected metadata %s %s", r.Name(), r.ContentType())
	}
	registry := render.NewRegistry()
	registry.MustRegister(r)
	if got, ok := registry.ForContentType("text/html"); !ok || got.Name() != "vanilla" {
		t.Fatalf("registry lookup by content type failed")
	}
}

type recordingTemplates struct {
	name string
	data any
	err  error
}

func (r *recordingTemplates) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

func (r *recordingTemplates) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	r.name, r.data = name, data
	if r.err != nil {
		return "", r.err
	}
	return "<form></form>", nil
}

func (r *recordingTemplates) RenderString(string, any, ...io.Writer) (string, error) {
	return "", errors.New("not supported")
}

func (r *recordingTemplates) RegisterFilter(string, func(any, any) (any, error)) error { return nil }

func (r *recordingTemplates) GlobalContext(any) error { return nil }

func TestRenderer_UsesInjectedTemplateRenderer(t *testing.T) {
	templates := &recordingTemplates{}
	r, err := vanilla.New(vanilla.WithTemplateRenderer(templates))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	html := renderHTML(t, r, defaultView(t, true, nil), render.RenderOptions{})
	if html != "<form></form>" {
		t.Fatalf("unexpected output %q", html)
	}
	if templates.name != "templates/form.tmpl" {
		t.Fatalf("unexpected template name %q", templates.name)
	}
	if templates.data == nil {
		t.Fatalf("expected template data")
	}

	templates.err = errors.New("boom")
	if _, err := r.Render(context.Background(), defaultView(t, true, nil), render.RenderOptions{}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected the template error to surface, got %v", err)
	}
}
