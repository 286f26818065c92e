package schema

import "strings"

// NodeType identifies the closed set of node kinds a page may contain.
type NodeType string

const (
	NodeSection  NodeType = "Section"
	NodeInput    NodeType = "Input"
	NodeSelect   NodeType = "Select"
	NodeCheckbox NodeType = "Checkbox"
)

// Known reports whether t is one of the supported node kinds. Unknown kinds are
// tolerated by the loader and skipped by consumers.
func (t NodeType) Known() bool {
	switch t {
	case NodeSection, NodeInput, NodeSelect, NodeCheckbox:
		return true
	default:
		return false
	}
}

// DataType refines how an Input value is coerced and validated.
type DataType string

const (
	DataTypeText   DataType = "text"
	DataTypeNumber DataType = "number"
	DataTypeURL    DataType = "url"
)

// Option is a single choice offered by a Select node.
type Option struct {
	Value string `json:"value" yaml:"value" validate:"required"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayLabel falls back to the option value when no label is declared.
func (o Option) DisplayLabel() string {
	if strings.TrimSpace(o.Label) != "" {
		return o.Label
	}
	return o.Value
}

// Props carries the presentational and behavioural attributes of a node.
type Props struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Label        string   `json:"label,omitempty" yaml:"label,omitempty"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty"`
	HelpText     string   `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required     bool     `json:"required,omitempty" yaml:"required,omitempty"`
	DataType     DataType `json:"dataType,omitempty" yaml:"dataType,omitempty" validate:"omitempty,oneof=text number url"`
	Options      []Option `json:"options,omitempty" yaml:"options,omitempty" validate:"omitempty,dive"`
	IsMulti      bool     `json:"isMulti,omitempty" yaml:"isMulti,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// ShowIf hides a node unless the referenced field equals Value.
type ShowIf struct {
	Field string `json:"field" yaml:"field" validate:"required"`
	Value any    `json:"value" yaml:"value"`
}

// Dependencies groups the conditions a node depends on.
type Dependencies struct {
	ShowIf *ShowIf `json:"showIf,omitempty" yaml:"showIf,omitempty"`
}

// Node is one element of a page tree. Only Section nodes carry children or may
// be repeatable.
type Node struct {
	ID           string        `json:"id" yaml:"id" validate:"required"`
	Type         NodeType      `json:"type" yaml:"type" validate:"required"`
	Props        Props         `json:"props" yaml:"props"`
	IsRepeatable bool          `json:"isRepeatable,omitempty" yaml:"isRepeatable,omitempty"`
	Dependencies *Dependencies `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Children     []Node        `json:"children,omitempty" yaml:"children,omitempty" validate:"omitempty,dive"`
}

// Name is the document key of the node: props.name, or the id when unset.
func (n Node) Name() string {
	if name := strings.TrimSpace(n.Props.Name); name != "" {
		return name
	}
	return n.ID
}

// DisplayLabel picks the first non-empty of label, title, and name.
func (n Node) DisplayLabel() string {
	if label := strings.TrimSpace(n.Props.Label); label != "" {
		return label
	}
	if title := strings.TrimSpace(n.Props.Title); title != "" {
		return title
	}
	return n.Name()
}

// IsSection reports whether the node groups children.
func (n Node) IsSection() bool {
	return n.Type == NodeSection
}

// ShowIf returns the visibility condition, if any.
func (n Node) ShowIf() *ShowIf {
	if n.Dependencies == nil {
		return nil
	}
	return n.Dependencies.ShowIf
}

// HasOption reports whether value matches one of the declared option values.
func (n Node) HasOption(value string) bool {
	for _, opt := range n.Props.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Page is the root of a form schema.
type Page struct {
	PageTitle string `json:"pageTitle,omitempty" yaml:"pageTitle,omitempty"`
	Elements  []Node `json:"elements" yaml:"elements" validate:"required,min=1,dive"`
}
