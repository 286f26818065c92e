package openapi_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/openapi"
	"github.com/alpaka/formengine/pkg/schema"
)

func TestCheckDocument_InitialDocumentMatchesSchema(t *testing.T) {
	page := schema.MustDefaultPage()
	if issues := openapi.CheckDocument(page, document.Initialize(page)); len(issues) != 0 {
		t.Fatalf("initial document should match the payload schema, got %+v", issues)
	}
}

func TestCheckDocument_FilledDocument(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	doc["service"] = map[string]any{
		"name":         "billing",
		"upstream_url": "https://billing.internal",
		"protocol":     "grpc",
		"retries":      3.0,
		"enabled":      true,
	}
	doc["routes"] = []any{map[string]any{"name": "r", "paths": "/x", "methods": []any{"GET"}, "strip_path": true}}

	if issues := openapi.CheckDocument(page, doc); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestCheckDocument_ReportsShapeIssues(t *testing.T) {
	page := schema.MustDefaultPage()
	doc := document.Initialize(page)
	doc["service"] = map[string]any{
		"name":     "billing",
		"protocol": "ftp",
		"enabled":  "yes",
	}
	doc["routes"] = []any{}

	issues := openapi.CheckDocument(page, doc)
	var paths []string
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}
	want := []string{"routes", "service.enabled", "service.protocol"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("issue paths mismatch (-want +got):\n%s", diff)
	}
}

func TestPayloadSchema_Shapes(t *testing.T) {
	page := schema.MustDefaultPage()
	payload := openapi.PayloadSchema(page)

	if payload.Title != "API Gateway Configuration" {
		t.Fatalf("title = %q", payload.Title)
	}
	routes := payload.Properties["routes"].Value
	if !routes.Type.Is("array") || routes.MinItems != 1 {
		t.Fatalf("routes should be an array with at least one item: %+v", routes)
	}
	protocol := payload.Properties["service"].Value.Properties["protocol"].Value
	if diff := cmp.Diff([]any{"http", "https", "grpc", ""}, protocol.Enum); diff != "" {
		t.Fatalf("protocol enum mismatch (-want +got):\n%s", diff)
	}
	if protocol.Default != "https" {
		t.Fatalf("protocol default = %v", protocol.Default)
	}
}

func TestSpecIsValid(t *testing.T) {
	doc := openapi.Spec(schema.MustDefaultPage(), "1.2.0")
	if err := openapi.ValidateSpec(context.Background(), doc); err != nil {
		t.Fatalf("spec should validate: %v", err)
	}
	if doc.Paths.Value("/v1/validate") == nil {
		t.Fatalf("validate path missing")
	}
	if _, ok := doc.Components.Schemas[openapi.PayloadComponent]; !ok {
		t.Fatalf("payload component missing")
	}
}
