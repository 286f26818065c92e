package docpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIndex caps sequence indices accepted by SetE so a single edit cannot
// allocate an arbitrarily large slice.
const MaxIndex = 10000

// ErrInvalidPath reports a path that cannot address a document slot.
var ErrInvalidPath = errors.New("docpath: invalid path")

// Split breaks a dotted path into its segments. An empty path yields nil.
func Split(path string) []string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ".")
}

// Join appends child to parent using the dotted notation shared by the
// renderer, validator, and error maps.
func Join(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// JoinIndex appends a sequence index to parent.
func JoinIndex(parent string, index int) string {
	return Join(parent, strconv.Itoa(index))
}

// Parent returns the path of the container holding path, or "" for top-level
// keys.
func Parent(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Base returns the last segment of path.
func Base(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// Index reports whether segment is a non-negative integer sequence index.
func Index(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Get resolves path inside root. The boolean is false when any segment is
// missing, out of range, or descends into a scalar; Get never panics.
func Get(root any, path string) (any, bool) {
	segments := Split(path)
	if len(segments) == 0 {
		return nil, false
	}
	current := root
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, ok := Index(segment)
			if !ok || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set is the total form of SetE: invalid paths leave root unchanged.
func Set(root map[string]any, path string, value any) map[string]any {
	out, err := SetE(root, path, value)
	if err != nil {
		return root
	}
	return out
}

// SetE returns a copy of root where Get(result, path) yields value.
//
// Container inference is the single rule used by every writer:
//   - a missing or scalar slot that must be descended becomes a sequence when
//     the next segment is an index and a mapping otherwise;
//   - an existing mapping keeps integer segments as string keys;
//   - an existing sequence addressed by a name is replaced by a mapping;
//   - sequences grow to fit the index, gap slots receive the same container
//     kind the addressed slot would get (nil when the index is the leaf).
//
// A mapping or sequence value replaces the whole subtree at path.
func SetE(root map[string]any, path string, value any) (map[string]any, error) {
	segments := Split(path)
	if len(segments) == 0 {
		return root, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, segment := range segments {
		if segment == "" {
			return root, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		if idx, ok := Index(segment); ok && idx > MaxIndex {
			return root, fmt.Errorf("%w: index %d exceeds %d in %q", ErrInvalidPath, idx, MaxIndex, path)
		}
	}

	var current any = root
	if root == nil {
		current = map[string]any{}
	}
	out, ok := assign(current, segments, value).(map[string]any)
	if !ok {
		return root, fmt.Errorf("%w: root must stay a mapping", ErrInvalidPath)
	}
	return out, nil
}

func assign(current any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	segment, rest := segments[0], segments[1:]
	idx, isIndex := Index(segment)

	switch node := current.(type) {
	case map[string]any:
		out := make(map[string]any, len(node)+1)
		for key, existing := range node {
			out[key] = existing
		}
		out[segment] = assign(node[segment], rest, value)
		return out
	case []any:
		if isIndex {
			return assignIndex(node, idx, rest, value)
		}
		return map[string]any{segment: assign(nil, rest, value)}
	default:
		if isIndex {
			return assignIndex(nil, idx, rest, value)
		}
		return map[string]any{segment: assign(nil, rest, value)}
	}
}

func assignIndex(seq []any, idx int, rest []string, value any) []any {
	size := len(seq)
	if idx >= size {
		size = idx + 1
	}
	out := make([]any, size)
	copy(out, seq)
	for i := len(seq); i < idx; i++ {
		out[i] = emptySlot(rest)
	}
	var existing any
	if idx < len(seq) {
		existing = seq[idx]
	}
	out[idx] = assign(existing, rest, value)
	return out
}

func emptySlot(rest []string) any {
	if len(rest) == 0 {
		return nil
	}
	if _, ok := Index(rest[0]); ok {
		return []any{}
	}
	return map[string]any{}
}

// Delete returns a copy of root without the slot at path. Sequence elements
// are removed and later elements renumbered. Missing paths return root as-is.
func Delete(root map[string]any, path string) map[string]any {
	segments := Split(path)
	if len(segments) == 0 || root == nil {
		return root
	}
	out, removed := remove(root, segments)
	if !removed {
		return root
	}
	result, ok := out.(map[string]any)
	if !ok {
		return root
	}
	return result
}

func remove(current any, segments []string) (any, bool) {
	segment, rest := segments[0], segments[1:]
	switch node := current.(type) {
	case map[string]any:
		child, ok := node[segment]
		if !ok {
			return current, false
		}
		out := make(map[string]any, len(node))
		for key, existing := range node {
			out[key] = existing
		}
		if len(rest) == 0 {
			delete(out, segment)
			return out, true
		}
		next, removed := remove(child, rest)
		if !removed {
			return current, false
		}
		out[segment] = next
		return out, true
	case []any:
		idx, ok := Index(segment)
		if !ok || idx >= len(node) {
			return current, false
		}
		if len(rest) == 0 {
			out := make([]any, 0, len(node)-1)
			out = append(out, node[:idx]...)
			out = append(out, node[idx+1:]...)
			return out, true
		}
		next, removed := remove(node[idx], rest)
		if !removed {
			return current, false
		}
		out := make([]any, len(node))
		copy(out, node)
		out[idx] = next
		return out, true
	default:
		return current, false
	}
}
