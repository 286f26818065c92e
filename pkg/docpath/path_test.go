package docpath_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/docpath"
)

func TestGet(t *testing.T) {
	doc := map[string]any{
		"service": map[string]any{"name": "billing"},
		"routes": []any{
			map[string]any{"path": "/a"},
			map[string]any{"path": "/b"},
		},
		"flag": nil,
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "nested mapping", path: "service.name", want: "billing", wantOK: true},
		{name: "sequence element", path: "routes.1.path", want: "/b", wantOK: true},
		{name: "explicit null", path: "flag", want: nil, wantOK: true},
		{name: "missing key", path: "service.port"},
		{name: "index out of range", path: "routes.5.path"},
		{name: "name on sequence", path: "routes.path"},
		{name: "descend into scalar", path: "service.name.first"},
		{name: "empty path", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := docpath.Get(doc, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSet_ContainerInference(t *testing.T) {
	tests := []struct {
		name  string
		root  map[string]any
		path  string
		value any
		want  map[string]any
	}{
		{
			name:  "creates sequence before index",
			root:  map[string]any{},
			path:  "routes.0.path",
			value: "/a",
			want: map[string]any{
				"routes": []any{map[string]any{"path": "/a"}},
			},
		},
		{
			name:  "fills gaps with matching containers",
			root:  map[string]any{},
			path:  "routes.2.path",
			value: "/c",
			want: map[string]any{
				"routes": []any{map[string]any{}, map[string]any{}, map[string]any{"path": "/c"}},
			},
		},
		{
			name:  "leaf index gaps are nil",
			root:  map[string]any{"tags": []any{"a"}},
			path:  "tags.3",
			value: "d",
			want:  map[string]any{"tags": []any{"a", nil, nil, "d"}},
		},
		{
			name:  "existing mapping keeps integer key",
			root:  map[string]any{"labels": map[string]any{}},
			path:  "labels.0",
			value: "zero",
			want:  map[string]any{"labels": map[string]any{"0": "zero"}},
		},
		{
			name:  "name on sequence replaces it with mapping",
			root:  map[string]any{"routes": []any{"x"}},
			path:  "routes.path",
			value: "/a",
			want:  map[string]any{"routes": map[string]any{"path": "/a"}},
		},
		{
			name:  "scalar intermediate is replaced",
			root:  map[string]any{"service": "legacy"},
			path:  "service.name",
			value: "billing",
			want:  map[string]any{"service": map[string]any{"name": "billing"}},
		},
		{
			name:  "container value replaces subtree",
			root:  map[string]any{"service": map[string]any{"name": "a", "port": 80.0}},
			path:  "service",
			value: map[string]any{"name": "b"},
			want:  map[string]any{"service": map[string]any{"name": "b"}},
		},
		{
			name:  "nil root",
			root:  nil,
			path:  "a",
			value: true,
			want:  map[string]any{"a": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := docpath.Set(tt.root, tt.path, tt.value)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("document mismatch (-want +got):\n%s", diff)
			}
			value, ok := docpath.Get(got, tt.path)
			if !ok {
				t.Fatalf("get after set: path %q missing", tt.path)
			}
			if diff := cmp.Diff(tt.value, value); diff != "" {
				t.Fatalf("get after set mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSet_DoesNotMutateInput(t *testing.T) {
	root := map[string]any{
		"service": map[string]any{"name": "billing"},
		"routes":  []any{map[string]any{"path": "/a"}},
		"plugins": map[string]any{"cors": true},
	}
	before := map[string]any{
		"service": map[string]any{"name": "billing"},
		"routes":  []any{map[string]any{"path": "/a"}},
		"plugins": map[string]any{"cors": true},
	}

	out := docpath.Set(root, "routes.0.path", "/b")
	out = docpath.Set(out, "service.name", "orders")

	if diff := cmp.Diff(before, root); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
	if got, _ := docpath.Get(out, "routes.0.path"); got != "/b" {
		t.Fatalf("expected /b, got %v", got)
	}
}

func TestSet_LeavesUnrelatedPathsUnchanged(t *testing.T) {
	root := map[string]any{
		"service": map[string]any{"name": "billing", "retries": 3.0},
		"routes":  []any{map[string]any{"path": "/a"}, map[string]any{"path": "/b"}},
	}
	out := docpath.Set(root, "routes.1.path", "/z")

	for _, path := range []string{"service.name", "service.retries", "routes.0.path"} {
		want, _ := docpath.Get(root, path)
		got, _ := docpath.Get(out, path)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s changed (-want +got):\n%s", path, diff)
		}
	}
}

func TestSetE_InvalidPaths(t *testing.T) {
	root := map[string]any{"a": 1.0}
	for _, path := range []string{"", "a..b", "routes.99999"} {
		out, err := docpath.SetE(root, path, "x")
		if !errors.Is(err, docpath.ErrInvalidPath) {
			t.Fatalf("path %q: expected ErrInvalidPath, got %v", path, err)
		}
		if diff := cmp.Diff(root, out); diff != "" {
			t.Fatalf("path %q: root changed (-want +got):\n%s", path, diff)
		}
	}
}

func TestDelete(t *testing.T) {
	root := map[string]any{
		"routes": []any{
			map[string]any{"path": "/a"},
			map[string]any{"path": "/b"},
			map[string]any{"path": "/c"},
		},
		"service": map[string]any{"name": "billing", "port": 80.0},
	}

	out := docpath.Delete(root, "routes.1")
	want := []any{map[string]any{"path": "/a"}, map[string]any{"path": "/c"}}
	if diff := cmp.Diff(want, out["routes"]); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if len(root["routes"].([]any)) != 3 {
		t.Fatalf("input mutated")
	}

	out = docpath.Delete(out, "service.port")
	if diff := cmp.Diff(map[string]any{"name": "billing"}, out["service"]); diff != "" {
		t.Fatalf("service mismatch (-want +got):\n%s", diff)
	}

	same := docpath.Delete(root, "routes.7")
	if diff := cmp.Diff(root, same); diff != "" {
		t.Fatalf("missing path should be a no-op (-want +got):\n%s", diff)
	}
}

func TestJoinAndParent(t *testing.T) {
	if got := docpath.Join("", "service"); got != "service" {
		t.Fatalf("join root: %q", got)
	}
	if got := docpath.JoinIndex("routes", 2); got != "routes.2" {
		t.Fatalf("join index: %q", got)
	}
	if got := docpath.Parent("routes.2.path"); got != "routes.2" {
		t.Fatalf("parent: %q", got)
	}
	if got := docpath.Parent("service"); got != "" {
		t.Fatalf("parent of top-level: %q", got)
	}
	if got := docpath.Base("routes.2.path"); got != "path" {
		t.Fatalf("base: %q", got)
	}
}
