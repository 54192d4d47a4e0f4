// Package moduletree models the hierarchical module tree produced by
// clustering and refined by sub-module agents, and plans the order modules
// are documented in.
package moduletree

import (
	"encoding/json"
	"sort"
)

// Node is one module. A node with no children is a leaf module whose
// components are documented directly; a node with children is a parent
// module documented by synthesizing its children's documents.
type Node struct {
	// Path is the directory hint returned by clustering. It may be empty.
	Path       string   `json:"path,omitempty"`
	Components []string `json:"components"`
	Children   Tree     `json:"children"`
}

// Tree maps module names to nodes. Names are unique among siblings by
// construction.
type Tree map[string]*Node

// NewLeaf returns a leaf node over the given components. The slice is copied.
func NewLeaf(components []string) *Node {
	return &Node{Components: append([]string{}, components...), Children: Tree{}}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n == nil || len(n.Children) == 0
}

// MarshalJSON always emits "components" and "children", as [] and {} when empty.
func (n *Node) MarshalJSON() ([]byte, error) {
	type plain Node
	out := plain(*n)
	if out.Components == nil {
		out.Components = []string{}
	}
	if out.Children == nil {
		out.Children = Tree{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{
		Path:       n.Path,
		Components: append([]string{}, n.Components...),
		Children:   n.Children.Clone(),
	}
}

// Clone returns a deep copy of the tree. The clone of a nil tree is an empty tree.
func (t Tree) Clone() Tree {
	out := make(Tree, len(t))
	for name, n := range t {
		out[name] = n.Clone()
	}
	return out
}

// Names returns the module names at this level in sorted order.
func (t Tree) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the node at path. The empty path has no node.
func (t Tree) Lookup(path []string) (*Node, bool) {
	if len(path) == 0 {
		return nil, false
	}
	level := t
	var n *Node
	for _, name := range path {
		var ok bool
		n, ok = level[name]
		if !ok || n == nil {
			return nil, false
		}
		level = n.Children
	}
	return n, true
}

// ChildrenAt returns the children mapping at path; the empty path is the
// top level. A node without a children mapping gets an empty one so callers
// can insert into the result.
func (t Tree) ChildrenAt(path []string) (Tree, bool) {
	if len(path) == 0 {
		return t, t != nil
	}
	n, ok := t.Lookup(path)
	if !ok {
		return nil, false
	}
	if n.Children == nil {
		n.Children = Tree{}
	}
	return n.Children, true
}

// EnsurePath returns the children mapping at path, creating empty nodes for
// any missing module along the way.
func (t Tree) EnsurePath(path []string) Tree {
	level := t
	for _, name := range path {
		n, ok := level[name]
		if !ok || n == nil {
			n = NewLeaf(nil)
			level[name] = n
		}
		if n.Children == nil {
			n.Children = Tree{}
		}
		level = n.Children
	}
	return level
}

// Components returns every component id referenced anywhere in the tree,
// sorted and deduplicated.
func (t Tree) Components() []string {
	seen := make(map[string]struct{})
	var walk func(Tree)
	walk = func(level Tree) {
		for _, n := range level {
			if n == nil {
				continue
			}
			for _, id := range n.Components {
				seen[id] = struct{}{}
			}
			walk(n.Children)
		}
	}
	walk(t)

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LeafCount returns the number of leaf modules.
func (t Tree) LeafCount() int {
	count := 0
	for _, n := range t {
		if n.IsLeaf() {
			count++
		} else {
			count += n.Children.LeafCount()
		}
	}
	return count
}

// Depth returns the number of levels in the tree; an empty tree has depth 0.
func (t Tree) Depth() int {
	deepest := 0
	for _, n := range t {
		d := 1
		if n != nil {
			d += n.Children.Depth()
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Equal reports whether two trees have the same names, paths, components and
// children. Component order is significant.
func (t Tree) Equal(other Tree) bool {
	if len(t) != len(other) {
		return false
	}
	for name, n := range t {
		o, ok := other[name]
		if !ok {
			return false
		}
		if n == nil || o == nil {
			if n != o {
				return false
			}
			continue
		}
		if n.Path != o.Path || len(n.Components) != len(o.Components) {
			return false
		}
		for i := range n.Components {
			if n.Components[i] != o.Components[i] {
				return false
			}
		}
		if !n.Children.Equal(o.Children) {
			return false
		}
	}
	return true
}
