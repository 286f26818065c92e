// Package testsupport holds fixtures and golden-file helpers shared by the
// package tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/schema"
)

// GatewayPage is a compact page exercising every node kind: a plain section
// with a select, a checkbox and a showIf-dependent input, and a repeatable
// section with a multi-select.
func GatewayPage() schema.Page {
	return schema.Page{
		PageTitle: "Gateway",
		Elements: []schema.Node{
			{
				ID:    "service",
				Type:  schema.NodeSection,
				Props: schema.Props{Title: "Service"},
				Children: []schema.Node{
					{ID: "name", Type: schema.NodeInput, Props: schema.Props{Label: "Service Name", Required: true}},
					{ID: "protocol", Type: schema.NodeSelect, Props: schema.Props{
						Label:   "Protocol",
						Options: []schema.Option{{Value: "http", Label: "HTTP"}, {Value: "https", Label: "HTTPS"}},
					}},
					{ID: "tls", Type: schema.NodeCheckbox, Props: schema.Props{Label: "TLS"}},
					{
						ID:           "cert",
						Type:         schema.NodeInput,
						Props:        schema.Props{Label: "Certificate"},
						Dependencies: &schema.Dependencies{ShowIf: &schema.ShowIf{Field: "tls", Value: true}},
					},
				},
			},
			{
				ID:           "routes",
				Type:         schema.NodeSection,
				IsRepeatable: true,
				Props:        schema.Props{Title: "Route"},
				Children: []schema.Node{
					{ID: "path", Type: schema.NodeInput, Props: schema.Props{Label: "Path", Required: true}},
					{ID: "methods", Type: schema.NodeSelect, Props: schema.Props{
						Label:   "Methods",
						IsMulti: true,
						Options: []schema.Option{{Value: "GET"}, {Value: "POST"}},
					}},
				},
			},
		},
	}
}

// LoadPage parses a page fixture (JSON or YAML).
func LoadPage(t *testing.T, path string) schema.Page {
	t.Helper()
	page, err := schema.Parse(MustReadGolden(t, path), path)
	if err != nil {
		t.Fatalf("parse page %s: %v", path, err)
	}
	return page
}

// LoadDocument reads a payload fixture.
func LoadDocument(t *testing.T, path string) document.Document {
	t.Helper()
	doc, err := document.Decode(MustReadGolden(t, path))
	if err != nil {
		t.Fatalf("decode document %s: %v", path, err)
	}
	return doc
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got string) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
