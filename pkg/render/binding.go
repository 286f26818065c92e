package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/alpaka/formengine/pkg/schema"
)

// CoerceInput converts raw text typed into an Input into the value stored in
// the document. Number inputs store a float64 when the text parses; other
// non-empty text keeps previous so NaN is never stored. Clearing the field
// stores "".
func CoerceInput(node schema.Node, previous any, raw string) any {
	if node.Props.DataType != schema.DataTypeNumber {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return previous
	}
	return parsed
}

// CoerceCheckbox stores the checked state as a boolean.
func CoerceCheckbox(checked bool) any {
	return checked
}

// CoerceSelect converts chosen option values into the stored value. Multi
// selects store a sequence in option order with unknown values dropped; single
// selects store the first chosen value, or "" when nothing is chosen.
func CoerceSelect(node schema.Node, chosen []string) any {
	if !node.Props.IsMulti {
		if len(chosen) == 0 {
			return ""
		}
		return chosen[0]
	}
	picked := make(map[string]struct{}, len(chosen))
	for _, value := range chosen {
		picked[value] = struct{}{}
	}
	out := make([]any, 0, len(chosen))
	for _, opt := range node.Props.Options {
		if _, ok := picked[opt.Value]; ok {
			out = append(out, opt.Value)
		}
	}
	return out
}

// Coerce dispatches raw form values to the coercion matching node's type.
// Checkboxes treat "true", "on", and "1" as checked.
func Coerce(node schema.Node, previous any, raw []string) (any, bool) {
	first := ""
	if len(raw) > 0 {
		first = raw[0]
	}
	switch node.Type {
	case schema.NodeInput:
		return CoerceInput(node, previous, first), true
	case schema.NodeCheckbox:
		switch strings.ToLower(strings.TrimSpace(first)) {
		case "true", "on", "1":
			return CoerceCheckbox(true), true
		default:
			return CoerceCheckbox(false), true
		}
	case schema.NodeSelect:
		return CoerceSelect(node, raw), true
	default:
		return nil, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
