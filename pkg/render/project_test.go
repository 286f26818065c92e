package render_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/validation"
)

func TestProject_DefaultPage(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	view := render.Project(page, doc, nil, render.ProjectOptions{Editable: true})

	if view.Title != "API Gateway Configuration" || !view.Editable {
		t.Fatalf("unexpected view header %+v", view)
	}

	var names []string
	for _, block := range view.Blocks {
		names = append(names, block.Name)
	}
	if diff := cmp.Diff([]string{"service", "routes", "plugins"}, names); diff != "" {
		t.Fatalf("top-level blocks mismatch (-want +got):\n%s", diff)
	}

	protocol, ok := view.Find("service.protocol")
	if !ok {
		t.Fatalf("service.protocol not rendered")
	}
	if protocol.Value != "https" {
		t.Fatalf("expected https, got %v", protocol.Value)
	}
	var selected []string
	for _, opt := range protocol.Options {
		if opt.Selected {
			selected = append(selected, opt.Value)
		}
	}
	if diff := cmp.Diff([]string{"https"}, selected); diff != "" {
		t.Fatalf("selected options mismatch (-want +got):\n%s", diff)
	}

	for _, hidden := range []string{"plugins.rate_limit_per_minute", "plugins.auth_type", "plugins.cors", "plugins.cors.origin"} {
		if _, ok := view.Find(hidden); ok {
			t.Fatalf("%s should be hidden", hidden)
		}
	}
}

func TestProject_RepeatableInstances(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)

	view := render.Project(page, doc, nil, render.ProjectOptions{Editable: true})
	routes, _ := view.Find("routes")
	if len(routes.Instances) != 1 || routes.Instances[0].CanRemove {
		t.Fatalf("single instance must not be removable: %+v", routes.Instances)
	}
	if !routes.CanAddInstance {
		t.Fatalf("editable repeatable section should allow adding")
	}

	doc = docpath.Set(doc, "routes.1.name", "second")
	view = render.Project(page, doc, nil, render.ProjectOptions{Editable: true})
	routes, _ = view.Find("routes")
	if len(routes.Instances) != 2 {
		t.Fatalf("expected two instances, got %d", len(routes.Instances))
	}
	for _, instance := range routes.Instances {
		if !instance.CanRemove {
			t.Fatalf("instance %d should be removable", instance.Index)
		}
	}
	second, ok := view.Find("routes.1.name")
	if !ok || second.Value != "second" {
		t.Fatalf("routes.1.name not bound: %+v", second)
	}

	readOnly := render.Project(page, doc, nil, render.ProjectOptions{})
	routes, _ = readOnly.Find("routes")
	if routes.CanAddInstance || routes.Instances[0].CanRemove {
		t.Fatalf("read-only view must not offer instance actions")
	}
	name, _ := readOnly.Find("service.name")
	if !name.Disabled {
		t.Fatalf("read-only fields should be disabled")
	}
}

func TestProject_ImplicitInstance(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	doc["routes"] = map[string]any{"name": "legacy"}

	view := render.Project(page, doc, nil, render.ProjectOptions{})
	routes, _ := view.Find("routes")
	if len(routes.Instances) != 1 || routes.Instances[0].Path != "routes.0" {
		t.Fatalf("expected implicit instance at routes.0, got %+v", routes.Instances)
	}
	name, _ := view.Find("routes.0.name")
	if name.Value != "" {
		t.Fatalf("implicit instance should read empty values, got %v", name.Value)
	}
}

func TestProject_ValuesAndErrors(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	doc = docpath.Set(doc, "service.retries", 3.0)
	doc = docpath.Set(doc, "service.enabled", true)
	doc = docpath.Set(doc, "routes.0.methods", []any{"POST", "GET"})
	doc = docpath.Set(doc, "plugins.enable_cors", true)
	errs := validation.ErrorMap{"service.name": "Service Name is required"}

	view := render.Project(page, doc, errs, render.ProjectOptions{Editable: true})

	retries, _ := view.Find("service.retries")
	if retries.Value != "3" || retries.DataType != schema.DataTypeNumber {
		t.Fatalf("unexpected retries block %+v", retries)
	}
	enabled, _ := view.Find("service.enabled")
	if enabled.Value != true {
		t.Fatalf("checkbox should be checked")
	}
	methods, _ := view.Find("routes.0.methods")
	if diff := cmp.Diff([]string{"POST", "GET"}, methods.Value); diff != "" {
		t.Fatalf("multi value mismatch (-want +got):\n%s", diff)
	}
	name, _ := view.Find("service.name")
	if name.Error != "Service Name is required" {
		t.Fatalf("error not attached: %+v", name)
	}
	if _, ok := view.Find("plugins.cors.origin"); !ok {
		t.Fatalf("nested section should render once enable_cors is true")
	}
}

func TestProject_UnknownTypeIsSkippedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	page := schema.Page{Elements: []schema.Node{
		{ID: "legacy", Type: "Slider"},
		{ID: "title", Type: schema.NodeInput},
	}}

	view := render.Project(page, document.Initialize(page), nil, render.ProjectOptions{Logger: logger})
	if len(view.Blocks) != 1 || view.Blocks[0].Name != "title" {
		t.Fatalf("expected only the title block, got %+v", view.Blocks)
	}
	if !strings.Contains(buf.String(), "unknown type") {
		t.Fatalf("expected diagnostic, got %q", buf.String())
	}
}

func TestProject_IsPure(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	before := document.Clone(doc)

	first := render.Project(page, doc, nil, render.ProjectOptions{Editable: true})
	second := render.Project(page, doc, nil, render.ProjectOptions{Editable: true})

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("projection not deterministic (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("projection mutated document (-want +got):\n%s", diff)
	}
}
