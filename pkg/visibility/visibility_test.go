package visibility_test

import (
	"math"
	"testing"

	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/visibility"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "same bool", a: true, b: true, want: true},
		{name: "different bool", a: false, b: true},
		{name: "string vs bool", a: "true", b: true},
		{name: "int vs float", a: 3, b: 3.0, want: true},
		{name: "number vs string", a: 3.0, b: "3"},
		{name: "nil vs nil", a: nil, b: nil, want: true},
		{name: "nil vs empty string", a: nil, b: ""},
		{name: "NaN", a: math.NaN(), b: math.NaN()},
		{name: "sequences never match", a: []any{"a"}, b: []any{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := visibility.Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestResolve_SiblingThenAbsolute(t *testing.T) {
	doc := map[string]any{
		"global_flag": true,
		"plugins": map[string]any{
			"enable_auth": false,
			"global_flag": false,
		},
	}

	got, ok := visibility.Resolve(doc, "plugins", "enable_auth")
	if !ok || got != false {
		t.Fatalf("sibling lookup: got %v, %v", got, ok)
	}

	got, ok = visibility.Resolve(doc, "plugins", "global_flag")
	if !ok || got != false {
		t.Fatalf("sibling should shadow absolute: got %v", got)
	}

	got, ok = visibility.Resolve(doc, "routes.0", "global_flag")
	if !ok || got != true {
		t.Fatalf("absolute fallback: got %v, %v", got, ok)
	}

	if _, ok := visibility.Resolve(doc, "plugins", "missing"); ok {
		t.Fatalf("expected undefined for missing field")
	}
}

func TestNodeVisible(t *testing.T) {
	node := schema.Node{
		ID:   "rate_limit",
		Type: schema.NodeInput,
		Dependencies: &schema.Dependencies{
			ShowIf: &schema.ShowIf{Field: "enabled", Value: true},
		},
	}
	doc := map[string]any{"plugins": map[string]any{"enabled": false}}

	if visibility.NodeVisible(nil, doc, "plugins", node) {
		t.Fatalf("expected hidden while enabled is false")
	}
	doc["plugins"].(map[string]any)["enabled"] = true
	if !visibility.NodeVisible(nil, doc, "plugins", node) {
		t.Fatalf("expected visible once enabled is true")
	}
	if visibility.NodeVisible(nil, map[string]any{}, "plugins", node) {
		t.Fatalf("undefined field should hide the node")
	}
	if !visibility.NodeVisible(nil, doc, "", schema.Node{ID: "plain", Type: schema.NodeInput}) {
		t.Fatalf("nodes without showIf are always visible")
	}

	always := visibility.EvaluatorFunc(func(map[string]any, string, schema.ShowIf) bool { return true })
	if !visibility.NodeVisible(always, map[string]any{}, "plugins", node) {
		t.Fatalf("custom evaluator should be consulted")
	}
}
