package render

import (
	"github.com/alpaka/formengine/pkg/schema"
)

// BlockKind tags the closed set of projected node kinds.
type BlockKind string

const (
	BlockSection  BlockKind = "section"
	BlockInput    BlockKind = "input"
	BlockSelect   BlockKind = "select"
	BlockCheckbox BlockKind = "checkbox"
)

// Choice is one option of a select block.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Instance is one rendered copy of a section's children.
type Instance struct {
	Index     int     `json:"index"`
	Path      string  `json:"path"`
	Blocks    []Block `json:"blocks"`
	CanRemove bool    `json:"canRemove,omitempty"`
}

// Block is the renderer-neutral projection of one visible node. Field blocks
// carry their bound value; section blocks carry instances.
type Block struct {
	Kind        BlockKind       `json:"kind"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Label       string          `json:"label,omitempty"`
	HelpText    string          `json:"helpText,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Required    bool            `json:"required,omitempty"`
	DataType    schema.DataType `json:"dataType,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
	Error       string          `json:"error,omitempty"`

	// Value is the display value: a string for inputs and single selects, a
	// []string for multi selects, a bool for checkboxes.
	Value   any      `json:"value,omitempty"`
	Options []Choice `json:"options,omitempty"`
	IsMulti bool     `json:"isMulti,omitempty"`

	Repeatable     bool       `json:"repeatable,omitempty"`
	Instances      []Instance `json:"instances,omitempty"`
	CanAddInstance bool       `json:"canAddInstance,omitempty"`
}

// IsField reports whether the block binds a leaf value.
func (b Block) IsField() bool {
	return b.Kind != BlockSection
}

// View is the projection of a whole page.
type View struct {
	Title    string  `json:"title,omitempty"`
	Editable bool    `json:"editable"`
	Blocks   []Block `json:"blocks"`
}

// Find returns the block bound to path, searching section instances.
func (v View) Find(path string) (Block, bool) {
	return findBlock(v.Blocks, path)
}

func findBlock(blocks []Block, path string) (Block, bool) {
	for _, block := range blocks {
		if block.Path == path {
			return block, true
		}
		for _, instance := range block.Instances {
			if found, ok := findBlock(instance.Blocks, path); ok {
				return found, true
			}
		}
	}
	return Block{}, false
}

// Paths lists every field, section, and instance path in render order.
func (v View) Paths() []string {
	var out []string
	collectPaths(v.Blocks, &out)
	return out
}

func collectPaths(blocks []Block, out *[]string) {
	for _, block := range blocks {
		*out = append(*out, block.Path)
		for _, instance := range block.Instances {
			if instance.Path != block.Path {
				*out = append(*out, instance.Path)
			}
			collectPaths(instance.Blocks, out)
		}
	}
}
