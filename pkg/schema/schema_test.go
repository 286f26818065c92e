package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/schema"
)

func TestParse_JSON(t *testing.T) {
	data := []byte(`{
		"pageTitle": "Gateway",
		"elements": [{
			"id": "plugins",
			"type": "Section",
			"props": {"title": "Plugins"},
			"children": [
				{"id": "enable_rate_limit", "type": "Checkbox", "props": {"label": "Rate limit"}},
				{"id": "limit", "type": "Input", "props": {"name": "rate_limit", "dataType": "number"},
				 "dependencies": {"showIf": {"field": "enable_rate_limit", "value": true}}}
			]
		}]
	}`)

	page, err := schema.Parse(data, "inline.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	section := page.Elements[0]
	if section.Name() != "plugins" {
		t.Fatalf("section name should fall back to id, got %q", section.Name())
	}
	if section.DisplayLabel() != "Plugins" {
		t.Fatalf("section label should fall back to title, got %q", section.DisplayLabel())
	}
	limit := section.Children[1]
	if limit.Name() != "rate_limit" {
		t.Fatalf("expected props.name, got %q", limit.Name())
	}
	want := &schema.ShowIf{Field: "enable_rate_limit", Value: true}
	if diff := cmp.Diff(want, limit.ShowIf()); diff != "" {
		t.Fatalf("showIf mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAMLNormalizesNumbers(t *testing.T) {
	data := []byte(`
elements:
  - id: tier
    type: Select
    props:
      options:
        - value: "1"
      defaultValue: 1
    dependencies:
      showIf:
        field: level
        value: 2
`)
	page, err := schema.Parse(data, "inline.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	node := page.Elements[0]
	if _, ok := node.Props.DefaultValue.(float64); !ok {
		t.Fatalf("defaultValue should be float64, got %T", node.Props.DefaultValue)
	}
	if _, ok := node.ShowIf().Value.(float64); !ok {
		t.Fatalf("showIf value should be float64, got %T", node.ShowIf().Value)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "empty",
			data: "  ",
			want: schema.ErrEmptyPage,
		},
		{
			name: "duplicate sibling names",
			data: `{"elements":[{"id":"a","type":"Section","children":[
				{"id":"x","type":"Input"},{"id":"y","type":"Input","props":{"name":"x"}}]}]}`,
			want: schema.ErrDuplicateName,
		},
		{
			name: "dotted name",
			data: `{"elements":[{"id":"a.b","type":"Input"}]}`,
			want: schema.ErrInvalidName,
		},
		{
			name: "numeric name",
			data: `{"elements":[{"id":"0","type":"Input"}]}`,
			want: schema.ErrInvalidName,
		},
		{
			name: "children on leaf",
			data: `{"elements":[{"id":"a","type":"Input","children":[{"id":"b","type":"Input"}]}]}`,
			want: schema.ErrChildrenOnLeaf,
		},
		{
			name: "repeatable leaf",
			data: `{"elements":[{"id":"a","type":"Checkbox","isRepeatable":true}]}`,
			want: schema.ErrRepeatableLeaf,
		},
		{
			name: "missing id",
			data: `{"elements":[{"type":"Input"}]}`,
			want: schema.ErrStructuralCheck,
		},
		{
			name: "no elements",
			data: `{"pageTitle":"x","elements":[]}`,
			want: schema.ErrStructuralCheck,
		},
		{
			name: "bad data type",
			data: `{"elements":[{"id":"a","type":"Input","props":{"dataType":"email"}}]}`,
			want: schema.ErrStructuralCheck,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Parse([]byte(tt.data), "inline")
			var loadErr *schema.LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected LoadError, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_InvalidSyntax(t *testing.T) {
	_, err := schema.Parse([]byte(`{"elements": [`), "broken.json")
	var loadErr *schema.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Source != "broken.json" {
		t.Fatalf("unexpected source %q", loadErr.Source)
	}
}

func TestWarnings_UnknownTypes(t *testing.T) {
	page := schema.Page{Elements: []schema.Node{
		{ID: "a", Type: "Slider"},
		{ID: "b", Type: schema.NodeSelect},
		{ID: "c", Type: schema.NodeInput},
	}}
	got := schema.Warnings(page)
	if len(got) != 2 {
		t.Fatalf("expected two warnings, got %v", got)
	}
}

func TestDefaultPage(t *testing.T) {
	page, err := schema.DefaultPage()
	if err != nil {
		t.Fatalf("default page: %v", err)
	}
	if len(schema.Warnings(page)) != 0 {
		t.Fatalf("default page should not produce warnings: %v", schema.Warnings(page))
	}

	routes, ok := schema.Child(page.Elements, "routes")
	if !ok || !routes.IsRepeatable {
		t.Fatalf("expected repeatable routes section")
	}
}

func TestPageLookup(t *testing.T) {
	page := schema.MustDefaultPage()

	tests := []struct {
		path   string
		wantID string
	}{
		{path: "service.upstream_url", wantID: "upstream_url"},
		{path: "routes.1.paths", wantID: "paths"},
		{path: "routes.0", wantID: "routes"},
		{path: "routes", wantID: "routes"},
		{path: "plugins.cors.origin", wantID: "cors_origin"},
		{path: "service.upstream_url.extra"},
		{path: "service.0.name"},
		{path: "routes.paths"},
		{path: "unknown"},
	}
	for _, tt := range tests {
		node, ok := page.Lookup(tt.path)
		if tt.wantID == "" {
			if ok {
				t.Fatalf("%s: expected no match, got %q", tt.path, node.ID)
			}
			continue
		}
		if !ok || node.ID != tt.wantID {
			t.Fatalf("%s: expected %q, got %q (ok=%v)", tt.path, tt.wantID, node.ID, ok)
		}
	}
}

func TestWalkSkipChildren(t *testing.T) {
	page := schema.MustDefaultPage()
	var paths []string
	err := schema.Walk(page.Elements, func(node schema.Node, path string) error {
		paths = append(paths, path)
		if node.Name() == "routes" || node.Name() == "plugins" || node.Name() == "service" {
			return schema.SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if diff := cmp.Diff([]string{"service", "routes", "plugins"}, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}
