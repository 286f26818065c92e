package document_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/schema"
)

func TestInitialize_DefaultPage(t *testing.T) {
	doc := document.Initialize(schema.MustDefaultPage())

	want := document.Document{
		"service": map[string]any{
			"name":         "",
			"upstream_url": "",
			"protocol":     "https",
			"retries":      "",
			"enabled":      false,
		},
		"routes": []any{
			map[string]any{
				"name":       "",
				"paths":      "",
				"methods":    "",
				"strip_path": false,
			},
		},
		"plugins": map[string]any{
			"enable_rate_limit":     false,
			"rate_limit_per_minute": "",
			"enable_auth":           false,
			"auth_type":             "key-auth",
			"enable_cors":           false,
			"cors": map[string]any{
				"origin":      "",
				"credentials": false,
			},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("initial document mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialize_SkipsUnknownTypes(t *testing.T) {
	page := schema.Page{Elements: []schema.Node{
		{ID: "title", Type: schema.NodeInput},
		{ID: "legacy", Type: "Slider"},
	}}
	doc := document.Initialize(page)
	if diff := cmp.Diff(document.Document{"title": ""}, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestNewInstance_IsIndependent(t *testing.T) {
	section := schema.Node{
		ID:   "routes",
		Type: schema.NodeSection,
		Children: []schema.Node{
			{ID: "methods", Type: schema.NodeSelect, Props: schema.Props{IsMulti: true, DefaultValue: []any{"GET"}}},
		},
	}
	first := document.NewInstance(section)
	second := document.NewInstance(section)
	first["methods"].([]any)[0] = "POST"

	if diff := cmp.Diff(map[string]any{"methods": []any{"GET"}}, second); diff != "" {
		t.Fatalf("instances share state (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"GET"}, section.Children[0].Props.DefaultValue); diff != "" {
		t.Fatalf("schema default mutated (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	page := schema.MustDefaultPage()

	tests := []struct {
		name  string
		input document.Document
		check func(t *testing.T, doc document.Document)
	}{
		{
			name:  "wraps stored mapping for repeatable section",
			input: document.Document{"routes": map[string]any{"name": "legacy"}},
			check: func(t *testing.T, doc document.Document) {
				routes := doc["routes"].([]any)
				if len(routes) != 1 || routes[0].(map[string]any)["name"] != "legacy" {
					t.Fatalf("unexpected routes %v", routes)
				}
			},
		},
		{
			name:  "absent repeatable section gets one instance",
			input: document.Document{},
			check: func(t *testing.T, doc document.Document) {
				routes := doc["routes"].([]any)
				if len(routes) != 1 {
					t.Fatalf("expected one instance, got %d", len(routes))
				}
			},
		},
		{
			name:  "keeps existing sequence",
			input: document.Document{"routes": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}},
			check: func(t *testing.T, doc document.Document) {
				if got := len(doc["routes"].([]any)); got != 2 {
					t.Fatalf("expected two instances, got %d", got)
				}
			},
		},
		{
			name:  "applies select default to empty value",
			input: document.Document{"service": map[string]any{"name": "billing", "protocol": ""}},
			check: func(t *testing.T, doc document.Document) {
				service := doc["service"].(map[string]any)
				if service["protocol"] != "https" || service["name"] != "billing" {
					t.Fatalf("unexpected service %v", service)
				}
			},
		},
		{
			name:  "keeps chosen select value",
			input: document.Document{"service": map[string]any{"protocol": "grpc"}},
			check: func(t *testing.T, doc document.Document) {
				if got := doc["service"].(map[string]any)["protocol"]; got != "grpc" {
					t.Fatalf("expected grpc, got %v", got)
				}
			},
		},
		{
			name:  "initializes missing nested section",
			input: document.Document{"plugins": map[string]any{"enable_cors": true}},
			check: func(t *testing.T, doc document.Document) {
				plugins := doc["plugins"].(map[string]any)
				cors, ok := plugins["cors"].(map[string]any)
				if !ok || cors["credentials"] != false {
					t.Fatalf("expected initialized cors section, got %v", plugins["cors"])
				}
				if plugins["auth_type"] != "key-auth" {
					t.Fatalf("expected select default inside section, got %v", plugins["auth_type"])
				}
			},
		},
		{
			name:  "preserves unknown keys",
			input: document.Document{"extra": "kept"},
			check: func(t *testing.T, doc document.Document) {
				if doc["extra"] != "kept" {
					t.Fatalf("unknown key dropped")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := document.Clone(tt.input)
			got := document.Normalize(page, tt.input)
			tt.check(t, got)
			if diff := cmp.Diff(before, tt.input); diff != "" {
				t.Fatalf("input mutated (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	empty := []any{nil, "", []any{}, math.NaN()}
	for _, v := range empty {
		if !document.IsEmpty(v) {
			t.Fatalf("expected %#v to be empty", v)
		}
	}
	present := []any{false, 0.0, " ", []any{"x"}, map[string]any{}}
	for _, v := range present {
		if document.IsEmpty(v) {
			t.Fatalf("expected %#v to be present", v)
		}
	}
}

func TestInstancePaths(t *testing.T) {
	doc := document.Document{
		"routes":  []any{map[string]any{}, map[string]any{}},
		"service": map[string]any{},
		"legacy":  map[string]any{},
	}
	if diff := cmp.Diff([]string{"routes.0", "routes.1"}, document.InstancePaths(doc, "routes", true)); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"legacy.0"}, document.InstancePaths(doc, "legacy", true)); diff != "" {
		t.Fatalf("implicit instance mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"service"}, document.InstancePaths(doc, "service", false)); diff != "" {
		t.Fatalf("plain section mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	doc, err := document.Decode([]byte(`{"service":{"retries":3}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(document.Document{"service": map[string]any{"retries": 3.0}}, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}

	for _, payload := range []string{"[1,2]", "null", "42", ""} {
		if _, err := document.Decode([]byte(payload)); !errors.Is(err, document.ErrNotObject) {
			t.Fatalf("payload %q: expected ErrNotObject, got %v", payload, err)
		}
	}
}

func TestDecodeOrEmpty_LogsMalformedPayload(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	doc := document.DecodeOrEmpty(logger, `{"service":`)
	if len(doc) != 0 {
		t.Fatalf("expected empty document, got %v", doc)
	}
	if !strings.Contains(buf.String(), "discarding unreadable payload") {
		t.Fatalf("expected warning, got %q", buf.String())
	}

	buf.Reset()
	doc = document.DecodeOrEmpty(logger, "  ")
	if len(doc) != 0 || buf.Len() != 0 {
		t.Fatalf("blank payload should decode silently to empty document")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	doc := document.Initialize(schema.MustDefaultPage())
	payload, err := document.EncodeString(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := document.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(doc, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
