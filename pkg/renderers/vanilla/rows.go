package vanilla

import (
	"fmt"
	"strings"

	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
)

// Row kinds emitted by flatten. Sections and instances open and close so a
// single template loop can draw arbitrarily nested pages.
const (
	rowSection     = "section"
	rowEndSection  = "end_section"
	rowInstance    = "instance"
	rowEndInstance = "end_instance"
	rowAdd         = "add"
	rowInput       = "input"
	rowSelect      = "select"
	rowCheckbox    = "checkbox"
)

type row struct {
	Kind        string          `json:"kind"`
	Depth       int             `json:"depth"`
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Label       string          `json:"label,omitempty"`
	HelpHTML    string          `json:"help_html,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Required    bool            `json:"required,omitempty"`
	InputType   string          `json:"input_type,omitempty"`
	Value       string          `json:"value,omitempty"`
	Checked     bool            `json:"checked,omitempty"`
	Options     []render.Choice `json:"options,omitempty"`
	Multi       bool            `json:"multi,omitempty"`
	Error       string          `json:"error,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
	Repeatable  bool            `json:"repeatable,omitempty"`
	Index       int             `json:"index"`
	CanRemove   bool            `json:"can_remove,omitempty"`
}

func flatten(blocks []render.Block, depth int) []row {
	var rows []row
	for _, block := range blocks {
		rows = append(rows, blockRows(block, depth)...)
	}
	return rows
}

func blockRows(block render.Block, depth int) []row {
	if block.Kind != render.BlockSection {
		return []row{fieldRow(block, depth)}
	}

	rows := []row{{
		Kind:       rowSection,
		Depth:      depth,
		ID:         elementID(block.Path),
		Name:       block.Path,
		Label:      block.Label,
		HelpHTML:   helpHTML(block.HelpText),
		Required:   block.Required,
		Error:      block.Error,
		Repeatable: block.Repeatable,
	}}
	for _, instance := range block.Instances {
		if block.Repeatable {
			rows = append(rows, row{
				Kind:      rowInstance,
				Depth:     depth + 1,
				ID:        elementID(instance.Path),
				Name:      block.Path,
				Label:     fmt.Sprintf("%s %d", block.Label, instance.Index+1),
				Index:     instance.Index,
				CanRemove: instance.CanRemove,
			})
		}
		rows = append(rows, flatten(instance.Blocks, depth+1)...)
		if block.Repeatable {
			rows = append(rows, row{Kind: rowEndInstance, Depth: depth + 1})
		}
	}
	if block.CanAddInstance {
		rows = append(rows, row{Kind: rowAdd, Depth: depth, Name: block.Path, Label: block.Label})
	}
	return append(rows, row{Kind: rowEndSection, Depth: depth})
}

func fieldRow(block render.Block, depth int) row {
	r := row{
		Depth:       depth,
		ID:          elementID(block.Path),
		Name:        block.Path,
		Label:       block.Label,
		HelpHTML:    helpHTML(block.HelpText),
		Placeholder: block.Placeholder,
		Required:    block.Required,
		Error:       block.Error,
		Disabled:    block.Disabled,
	}
	switch block.Kind {
	case render.BlockCheckbox:
		r.Kind = rowCheckbox
		r.Checked, _ = block.Value.(bool)
	case render.BlockSelect:
		r.Kind = rowSelect
		r.Multi = block.IsMulti
		r.Options = block.Options
		if value, ok := block.Value.(string); ok {
			r.Value = value
		}
	default:
		r.Kind = rowInput
		r.InputType = inputType(block.DataType)
		if value, ok := block.Value.(string); ok {
			r.Value = value
		}
	}
	return r
}

func inputType(dt schema.DataType) string {
	switch dt {
	case schema.DataTypeNumber:
		return "number"
	case schema.DataTypeURL:
		return "url"
	default:
		return "text"
	}
}

func elementID(path string) string {
	return "fe-" + strings.ReplaceAll(path, ".", "-")
}
