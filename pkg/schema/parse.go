package schema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/alpaka/formengine/pkg/docpath"
)

// LoadError reports a page that could not be read, parsed, or checked.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("schema: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var (
	ErrEmptyPage       = errors.New("page has no content")
	ErrDuplicateName   = errors.New("duplicate sibling name")
	ErrInvalidName     = errors.New("invalid node name")
	ErrChildrenOnLeaf  = errors.New("only sections may declare children")
	ErrRepeatableLeaf  = errors.New("only sections may be repeatable")
	ErrStructuralCheck = errors.New("structural check failed")
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a JSON or YAML page definition and checks it. JSON is tried
// first; YAML is the fallback.
func Parse(data []byte, source string) (Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Page{}, &LoadError{Source: source, Err: ErrEmptyPage}
	}

	var page Page
	jsonErr := json.Unmarshal(trimmed, &page)
	if jsonErr != nil {
		page = Page{}
		if yamlErr := yaml.Unmarshal(trimmed, &page); yamlErr != nil {
			if trimmed[0] == '{' {
				return Page{}, &LoadError{Source: source, Err: fmt.Errorf("parse json: %w", jsonErr)}
			}
			return Page{}, &LoadError{Source: source, Err: fmt.Errorf("parse yaml: %w", yamlErr)}
		}
	}

	normalizeValues(page.Elements)

	if err := Check(page); err != nil {
		return Page{}, &LoadError{Source: source, Err: err}
	}
	return page, nil
}

// Check validates field constraints and the tree rules: sibling names are
// unique, names are usable as path segments, and only sections carry children
// or repeat.
func Check(page Page) error {
	if err := structValidator.Struct(page); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrStructuralCheck, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrStructuralCheck, err)
	}
	return checkNodes(page.Elements, "")
}

func checkNodes(nodes []Node, parent string) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		name := node.Name()
		path := docpath.Join(parent, name)
		if strings.Contains(name, ".") || strings.TrimSpace(name) != name {
			return fmt.Errorf("%w: %q", ErrInvalidName, path)
		}
		if _, isIndex := docpath.Index(name); isIndex {
			return fmt.Errorf("%w: %q collides with instance indices", ErrInvalidName, path)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, path)
		}
		seen[name] = struct{}{}

		if node.Type != NodeSection {
			if len(node.Children) > 0 {
				return fmt.Errorf("%w: %q", ErrChildrenOnLeaf, path)
			}
			if node.IsRepeatable {
				return fmt.Errorf("%w: %q", ErrRepeatableLeaf, path)
			}
			continue
		}
		if err := checkNodes(node.Children, path); err != nil {
			return err
		}
	}
	return nil
}

// Warnings lists non-fatal findings: unknown node types and selects without
// options.
func Warnings(page Page) []string {
	var out []string
	_ = Walk(page.Elements, func(node Node, path string) error {
		switch {
		case !node.Type.Known():
			out = append(out, fmt.Sprintf("node %q has unknown type %q and will be ignored", path, node.Type))
			return SkipChildren
		case node.Type == NodeSelect && len(node.Props.Options) == 0:
			out = append(out, fmt.Sprintf("select %q declares no options", path))
		}
		return nil
	})
	return out
}

// normalizeValues rewrites YAML integers to float64 so defaults and showIf
// values compare the same way as decoded JSON documents.
func normalizeValues(nodes []Node) {
	for i := range nodes {
		nodes[i].Props.DefaultValue = jsonValue(nodes[i].Props.DefaultValue)
		if cond := nodes[i].ShowIf(); cond != nil {
			cond.Value = jsonValue(cond.Value)
		}
		normalizeValues(nodes[i].Children)
	}
}

func jsonValue(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonValue(item)
		}
		return out
	default:
		return value
	}
}
