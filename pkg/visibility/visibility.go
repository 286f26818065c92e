// Package visibility evaluates showIf dependencies. The renderer and the
// validator both ask the same Evaluator, so a hidden node is neither drawn nor
// checked.
package visibility

import (
	"github.com/alpaka/formengine/pkg/docpath"
	"github.com/alpaka/formengine/pkg/schema"
)

// Evaluator decides whether a node under parentPath is visible for doc.
type Evaluator interface {
	Visible(doc map[string]any, parentPath string, cond schema.ShowIf) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(doc map[string]any, parentPath string, cond schema.ShowIf) bool

// Visible delegates to the underlying function.
func (fn EvaluatorFunc) Visible(doc map[string]any, parentPath string, cond schema.ShowIf) bool {
	return fn(doc, parentPath, cond)
}

// Equality shows a node only when the referenced field strictly equals the
// declared value.
var Equality Evaluator = EvaluatorFunc(func(doc map[string]any, parentPath string, cond schema.ShowIf) bool {
	value, ok := Resolve(doc, parentPath, cond.Field)
	if !ok {
		return false
	}
	return Equal(value, cond.Value)
})

// NodeVisible reports whether node, located under parentPath, is visible.
// Nodes without a showIf are always visible. A nil evaluator means Equality.
func NodeVisible(eval Evaluator, doc map[string]any, parentPath string, node schema.Node) bool {
	cond := node.ShowIf()
	if cond == nil {
		return true
	}
	if eval == nil {
		eval = Equality
	}
	return eval.Visible(doc, parentPath, *cond)
}

// Resolve looks field up relative to parentPath first and falls back to an
// absolute lookup from the document root.
func Resolve(doc map[string]any, parentPath, field string) (any, bool) {
	if parentPath != "" {
		if value, ok := docpath.Get(doc, docpath.Join(parentPath, field)); ok {
			return value, true
		}
	}
	return docpath.Get(doc, field)
}

// Equal compares scalars strictly: same kind and same value. Numbers compare
// by value regardless of their Go type. Mappings and sequences never match.
func Equal(a, b any) bool {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	default:
		return 0, false
	}
}
