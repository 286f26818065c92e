package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/alpaka/formengine/pkg/schema"
)

// PayloadSchema builds the object schema of documents produced for page.
// Nodes of unknown type are left out, matching the renderer.
func PayloadSchema(page schema.Page) *openapi3.Schema {
	out := objectSchema(page.Elements)
	out.Title = page.PageTitle
	return out
}

func objectSchema(nodes []schema.Node) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	for _, node := range nodes {
		prop := NodeSchema(node)
		if prop == nil {
			continue
		}
		out.WithProperty(node.Name(), prop)
	}
	return out
}

// NodeSchema returns the schema of the value stored for node, or nil for
// unknown node types.
func NodeSchema(node schema.Node) *openapi3.Schema {
	var out *openapi3.Schema
	switch node.Type {
	case schema.NodeSection:
		out = objectSchema(node.Children)
		if node.IsRepeatable {
			out = openapi3.NewArraySchema().WithItems(out).WithMinItems(1)
		}
	case schema.NodeInput:
		out = inputSchema(node)
	case schema.NodeSelect:
		out = selectSchema(node)
	case schema.NodeCheckbox:
		out = openapi3.NewBoolSchema()
	default:
		return nil
	}
	out.Title = node.DisplayLabel()
	out.Description = node.Props.HelpText
	return out
}

func inputSchema(node schema.Node) *openapi3.Schema {
	switch node.Props.DataType {
	case schema.DataTypeNumber:
		return openapi3.NewAnyOfSchema(openapi3.NewFloat64Schema(), emptyString())
	case schema.DataTypeURL:
		return openapi3.NewStringSchema().WithPattern(`^$|^https?://.+`)
	default:
		return openapi3.NewStringSchema()
	}
}

func selectSchema(node schema.Node) *openapi3.Schema {
	item := openapi3.NewStringSchema()
	if len(node.Props.Options) > 0 {
		values := make([]any, 0, len(node.Props.Options))
		for _, opt := range node.Props.Options {
			values = append(values, opt.Value)
		}
		item.WithEnum(values...)
	}

	if node.Props.IsMulti {
		return openapi3.NewAnyOfSchema(openapi3.NewArraySchema().WithItems(item), emptyString())
	}
	if len(item.Enum) > 0 {
		item.Enum = append(item.Enum, "")
	}
	if def, ok := node.Props.DefaultValue.(string); ok && def != "" {
		item.WithDefault(def)
	}
	return item
}

func emptyString() *openapi3.Schema {
	return openapi3.NewStringSchema().WithMaxLength(0)
}
