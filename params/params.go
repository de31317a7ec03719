// Package params implements an opaque pack of named numeric tensors.
//
// A Tree maps slash-separated names ("dense/kernel", "dense/bias") to
// float64 tensors and has a stable, sorted traversal order. Trees are
// handled by value: With and Without return modified copies and never
// touch the receiver, so a Tree captured by a sampling or expectation
// call cannot change under it.
package params

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Tree is an immutable collection of named tensors. The zero value is an
// empty tree, ready for use.
type Tree struct {
	leaves map[string][]float64
}

// New creates an empty tree.
func New() Tree {
	return Tree{}
}

// With returns a copy of t with the named tensor set. The values are
// defensively copied.
func (t Tree) With(name string, values []float64) Tree {
	leaves := make(map[string][]float64, len(t.leaves)+1)
	for k, v := range t.leaves {
		leaves[k] = v
	}
	leaves[name] = slices.Clone(values)
	return Tree{leaves: leaves}
}

// Without returns a copy of t with the named tensor removed. Removing a
// missing name is a no-op.
func (t Tree) Without(name string) Tree {
	if _, ok := t.leaves[name]; !ok {
		return t
	}
	leaves := make(map[string][]float64, len(t.leaves)-1)
	for k, v := range t.leaves {
		if k != name {
			leaves[k] = v
		}
	}
	return Tree{leaves: leaves}
}

// Get returns the named tensor. The returned slice is shared and must not
// be modified; copy it before writing.
func (t Tree) Get(name string) ([]float64, bool) {
	v, ok := t.leaves[name]
	return v, ok
}

// Names returns all tensor names in sorted order. This is the tree's
// stable traversal order.
func (t Tree) Names() []string {
	names := make([]string, 0, len(t.leaves))
	for k := range t.leaves {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tensors in the tree.
func (t Tree) Len() int { return len(t.leaves) }

// Equal reports whether two trees hold the same tensors under the same
// names.
func (t Tree) Equal(o Tree) bool {
	if len(t.leaves) != len(o.leaves) {
		return false
	}
	for k, v := range t.leaves {
		ov, ok := o.leaves[k]
		if !ok || !slices.Equal(v, ov) {
			return false
		}
	}
	return true
}

func (t Tree) String() string {
	var b strings.Builder
	b.WriteString("Tree{")
	for i, name := range t.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s[%d]", name, len(t.leaves[name]))
	}
	b.WriteString("}")
	return b.String()
}
