package schema

import (
	"errors"

	"github.com/alpaka/formengine/pkg/docpath"
)

// SkipChildren may be returned by a WalkFunc to skip the children of a section.
var SkipChildren = errors.New("schema: skip children")

// WalkFunc is invoked for every node in depth-first order. schemaPath joins node
// names without instance indices, e.g. "routes.upstream_url".
type WalkFunc func(node Node, schemaPath string) error

// Walk visits nodes and their descendants depth-first.
func Walk(nodes []Node, fn WalkFunc) error {
	return walk(nodes, "", fn)
}

func walk(nodes []Node, parent string, fn WalkFunc) error {
	for _, node := range nodes {
		path := docpath.Join(parent, node.Name())
		err := fn(node, path)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if len(node.Children) > 0 {
			if err := walk(node.Children, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Child returns the direct child named name.
func Child(nodes []Node, name string) (Node, bool) {
	for _, node := range nodes {
		if node.Name() == name {
			return node, true
		}
	}
	return Node{}, false
}

// Lookup resolves a concrete document path such as "routes.1.upstream_url" to
// the node that owns it. A path that stops at an instance index ("routes.1")
// resolves to the repeatable section itself; a path that skips the index
// ("routes.paths") resolves to nothing.
func (p Page) Lookup(path string) (Node, bool) {
	segments := docpath.Split(path)
	if len(segments) == 0 {
		return Node{}, false
	}
	nodes := p.Elements
	for i := 0; i < len(segments); {
		node, ok := Child(nodes, segments[i])
		if !ok {
			return Node{}, false
		}
		i++
		if i == len(segments) {
			return node, true
		}
		if !node.IsSection() {
			return Node{}, false
		}
		if node.IsRepeatable {
			// fields of a repeatable section are only addressable per instance
			if _, isIndex := docpath.Index(segments[i]); !isIndex {
				return Node{}, false
			}
			i++
			if i == len(segments) {
				return node, true
			}
		}
		nodes = node.Children
	}
	return Node{}, false
}
