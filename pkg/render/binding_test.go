package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
)

func TestCoerceInput(t *testing.T) {
	number := schema.Node{ID: "retries", Type: schema.NodeInput, Props: schema.Props{DataType: schema.DataTypeNumber}}
	text := schema.Node{ID: "name", Type: schema.NodeInput}

	tests := []struct {
		name     string
		node     schema.Node
		previous any
		raw      string
		want     any
	}{
		{name: "number parses", node: number, previous: "", raw: "42", want: 42.0},
		{name: "decimal parses", node: number, previous: "", raw: " 1.5 ", want: 1.5},
		{name: "non numeric keeps previous", node: number, previous: 7.0, raw: "7a", want: 7.0},
		{name: "NaN keeps previous", node: number, previous: 7.0, raw: "NaN", want: 7.0},
		{name: "cleared number", node: number, previous: 7.0, raw: "", want: ""},
		{name: "text unchanged", node: text, previous: "a", raw: " spaced ", want: " spaced "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render.CoerceInput(tt.node, tt.previous, tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerceSelect(t *testing.T) {
	multi := schema.Node{ID: "methods", Type: schema.NodeSelect, Props: schema.Props{
		IsMulti: true,
		Options: []schema.Option{{Value: "GET"}, {Value: "POST"}, {Value: "PUT"}},
	}}
	got := render.CoerceSelect(multi, []string{"PUT", "TRACE", "GET"})
	if diff := cmp.Diff([]any{"GET", "PUT"}, got); diff != "" {
		t.Fatalf("multi mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{}, render.CoerceSelect(multi, nil)); diff != "" {
		t.Fatalf("empty multi mismatch (-want +got):\n%s", diff)
	}

	single := schema.Node{ID: "protocol", Type: schema.NodeSelect}
	if got := render.CoerceSelect(single, []string{"grpc", "http"}); got != "grpc" {
		t.Fatalf("single select should keep the first value, got %v", got)
	}
	if got := render.CoerceSelect(single, nil); got != "" {
		t.Fatalf("empty single select should be empty string, got %v", got)
	}
}

func TestCoerce_Checkbox(t *testing.T) {
	node := schema.Node{ID: "enabled", Type: schema.NodeCheckbox}
	for raw, want := range map[string]bool{"on": true, "true": true, "1": true, "": false, "off": false} {
		got, ok := render.Coerce(node, nil, []string{raw})
		if !ok || got != want {
			t.Fatalf("raw %q: got %v, want %v", raw, got, want)
		}
	}
	if _, ok := render.Coerce(schema.Node{Type: schema.NodeSection}, nil, nil); ok {
		t.Fatalf("sections cannot be coerced")
	}
}
