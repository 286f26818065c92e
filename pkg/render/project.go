package render

import (
	"fmt"
	"log/slog"

	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/document"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/validation"
	"github.com/alpaka/formengine/pkg/visibility"
)

// ProjectOptions controls a projection.
type ProjectOptions struct {
	// Editable gates the add/remove affordances and marks fields disabled when
	// false.
	Editable bool
	// Evaluator decides showIf visibility. Nil means equality.
	Evaluator visibility.Evaluator
	// Logger receives diagnostics for skipped node types.
	Logger *slog.Logger
}

// Project maps page, doc, and errs onto a View. It is a pure function of its
// inputs and never modifies doc.
func Project(page schema.Page, doc map[string]any, errs validation.ErrorMap, opts ProjectOptions) View {
	return View{
		Title:    page.PageTitle,
		Editable: opts.Editable,
		Blocks:   projectNodes(page.Elements, doc, errs, "", opts),
	}
}

// ProjectNode projects a single node located under parent. The boolean is
// false when the node is hidden or of an unknown type.
func ProjectNode(node schema.Node, doc map[string]any, errs validation.ErrorMap, parent string, opts ProjectOptions) (Block, bool) {
	if !visibility.NodeVisible(opts.Evaluator, doc, parent, node) {
		return Block{}, false
	}
	project, known := projectors[node.Type]
	if !known {
		logger(opts).Warn("skipping node with unknown type", "id", node.ID, "type", string(node.Type), "parent", parent)
		return Block{}, false
	}
	return project(node, doc, errs, docpath.Join(parent, node.Name()), opts), true
}

func projectNodes(nodes []schema.Node, doc map[string]any, errs validation.ErrorMap, parent string, opts ProjectOptions) []Block {
	blocks := make([]Block, 0, len(nodes))
	for _, node := range nodes {
		if block, ok := ProjectNode(node, doc, errs, parent, opts); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

type projector func(node schema.Node, doc map[string]any, errs validation.ErrorMap, path string, opts ProjectOptions) Block

var projectors map[schema.NodeType]projector

func init() {
	projectors = map[schema.NodeType]projector{
		schema.NodeSection:  projectSection,
		schema.NodeInput:    projectInput,
		schema.NodeSelect:   projectSelect,
		schema.NodeCheckbox: projectCheckbox,
	}
}

func baseBlock(kind BlockKind, node schema.Node, errs validation.ErrorMap, path string, opts ProjectOptions) Block {
	return Block{
		Kind:        kind,
		ID:          node.ID,
		Name:        node.Name(),
		Path:        path,
		Label:       node.DisplayLabel(),
		HelpText:    node.Props.HelpText,
		Placeholder: node.Props.Placeholder,
		Required:    node.Props.Required,
		Disabled:    !opts.Editable,
		Error:       errs[path],
	}
}

func projectSection(node schema.Node, doc map[string]any, errs validation.ErrorMap, path string, opts ProjectOptions) Block {
	block := baseBlock(BlockSection, node, errs, path, opts)
	block.Disabled = false
	block.Repeatable = node.IsRepeatable

	paths := document.InstancePaths(doc, path, node.IsRepeatable)
	block.Instances = make([]Instance, 0, len(paths))
	for i, instancePath := range paths {
		block.Instances = append(block.Instances, Instance{
			Index:     i,
			Path:      instancePath,
			Blocks:    projectNodes(node.Children, doc, errs, instancePath, opts),
			CanRemove: opts.Editable && node.IsRepeatable && len(paths) > 1,
		})
	}
	block.CanAddInstance = opts.Editable && node.IsRepeatable
	return block
}

func projectInput(node schema.Node, doc map[string]any, errs validation.ErrorMap, path string, opts ProjectOptions) Block {
	block := baseBlock(BlockInput, node, errs, path, opts)
	block.DataType = node.Props.DataType
	if block.DataType == "" {
		block.DataType = schema.DataTypeText
	}
	value, _ := docpath.Get(doc, path)
	block.Value = displayString(value)
	return block
}

func projectCheckbox(node schema.Node, doc map[string]any, errs validation.ErrorMap, path string, opts ProjectOptions) Block {
	block := baseBlock(BlockCheckbox, node, errs, path, opts)
	value, _ := docpath.Get(doc, path)
	checked, _ := value.(bool)
	block.Value = checked
	return block
}

func projectSelect(node schema.Node, doc map[string]any, errs validation.ErrorMap, path string, opts ProjectOptions) Block {
	block := baseBlock(BlockSelect, node, errs, path, opts)
	block.IsMulti = node.Props.IsMulti
	value, _ := docpath.Get(doc, path)

	selected := map[string]struct{}{}
	if node.Props.IsMulti {
		values := selectedValues(value)
		for _, v := range values {
			selected[v] = struct{}{}
		}
		block.Value = values
	} else {
		current := displayString(value)
		if current != "" {
			selected[current] = struct{}{}
		}
		block.Value = current
	}

	block.Options = make([]Choice, 0, len(node.Props.Options))
	for _, opt := range node.Props.Options {
		_, isSelected := selected[opt.Value]
		block.Options = append(block.Options, Choice{
			Value:    opt.Value,
			Label:    opt.DisplayLabel(),
			Selected: isSelected,
		})
	}
	return block
}

func selectedValues(value any) []string {
	out := []string{}
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
	case []string:
		out = append(out, typed...)
	}
	return out
}

func displayString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return formatNumber(typed)
	case bool:
		if typed {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(typed)
	}
}

func logger(opts ProjectOptions) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}
