package document

import (
	"github.com/alpaka/formengine/pkg/schema"
)

// DefaultValue is the initial value of a leaf: false for checkboxes, the
// declared default (or "") for selects, and "" for inputs. Sections and unknown
// node types have no default.
func DefaultValue(node schema.Node) any {
	switch node.Type {
	case schema.NodeCheckbox:
		return false
	case schema.NodeSelect:
		if node.Props.DefaultValue != nil {
			return CloneValue(node.Props.DefaultValue)
		}
		return ""
	case schema.NodeInput:
		return ""
	default:
		return nil
	}
}

// Initialize builds the starting document for page. Every section becomes a
// mapping, or a one-element sequence of mappings when repeatable, with each
// child set to its default. Nested sections are initialized recursively.
func Initialize(page schema.Page) Document {
	doc := Document{}
	initNodes(page.Elements, doc)
	return doc
}

// NewInstance returns a fresh mapping for one instance of section.
func NewInstance(section schema.Node) map[string]any {
	instance := map[string]any{}
	initNodes(section.Children, instance)
	return instance
}

func initNodes(nodes []schema.Node, target map[string]any) {
	for _, node := range nodes {
		switch node.Type {
		case schema.NodeSection:
			instance := NewInstance(node)
			if node.IsRepeatable {
				target[node.Name()] = []any{instance}
			} else {
				target[node.Name()] = instance
			}
		case schema.NodeInput, schema.NodeSelect, schema.NodeCheckbox:
			target[node.Name()] = DefaultValue(node)
		}
	}
}

// Normalize reshapes a stored document so it matches page without discarding
// data: repeatable sections become sequences (a stored mapping is wrapped, an
// absent slot gets one empty instance), missing plain sections are
// initialized, and selects with a declared default receive it when their value
// is empty. doc is not modified.
func Normalize(page schema.Page, doc Document) Document {
	out := Clone(doc)
	normalizeNodes(page.Elements, out)
	return out
}

func normalizeNodes(nodes []schema.Node, target map[string]any) {
	for _, node := range nodes {
		name := node.Name()
		switch node.Type {
		case schema.NodeSection:
			if node.IsRepeatable {
				target[name] = normalizeRepeatable(node, target[name])
				continue
			}
			instance, ok := target[name].(map[string]any)
			if !ok {
				target[name] = NewInstance(node)
				continue
			}
			normalizeNodes(node.Children, instance)
		case schema.NodeSelect:
			if node.Props.DefaultValue == nil {
				continue
			}
			if IsEmpty(target[name]) {
				target[name] = CloneValue(node.Props.DefaultValue)
			}
		}
	}
}

func normalizeRepeatable(node schema.Node, slot any) []any {
	var instances []any
	switch value := slot.(type) {
	case []any:
		instances = value
	case map[string]any:
		instances = []any{value}
	default:
		instances = []any{map[string]any{}}
	}
	for i, item := range instances {
		instance, ok := item.(map[string]any)
		if !ok {
			instance = map[string]any{}
			instances[i] = instance
		}
		normalizeNodes(node.Children, instance)
	}
	return instances
}
