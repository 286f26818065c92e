package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
)

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(render.NewJSONRenderer())

	if err := registry.Register(render.NewJSONRenderer()); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
	if _, err := registry.Get("html"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
	if !registry.Has("json") || len(registry.List()) != 1 {
		t.Fatalf("unexpected registry state %v", registry.List())
	}
	if r, ok := registry.ForContentType("application/json"); !ok || r.Name() != "json" {
		t.Fatalf("content type lookup failed")
	}
}

func TestJSONRenderer(t *testing.T) {
	page := schema.MustDefaultPage()
	view := render.Project(page, document.Initialize(page), nil, render.ProjectOptions{Editable: true})

	out, err := render.NewJSONRenderer().Render(context.Background(), view, render.RenderOptions{
		Hidden: map[string]string{"cr_id": "12"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded struct {
		Title  string `json:"title"`
		Blocks []struct {
			Name string `json:"name"`
		} `json:"blocks"`
		Hidden []render.HiddenField `json:"hidden"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Title != page.PageTitle || len(decoded.Blocks) != 3 || len(decoded.Hidden) != 1 {
		t.Fatalf("unexpected payload %s", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := render.NewJSONRenderer().Render(ctx, view, render.RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}
