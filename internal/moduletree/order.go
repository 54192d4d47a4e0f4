package moduletree

// Step is one entry of the processing order. Path includes Name as its last
// element; the repository root step has an empty Path and Root set.
type Step struct {
	Path []string
	Name string
	Root bool
}

// IsLeafIn reports whether the step names a leaf module of tree. The root
// step is never a leaf.
func (s Step) IsLeafIn(tree Tree) bool {
	if s.Root {
		return false
	}
	n, ok := tree.Lookup(s.Path)
	return ok && n.IsLeaf()
}

// Order linearizes tree post-order: every module appears after all of its
// descendants, and the repository root is appended last. Siblings are visited
// in name order so the sequence is stable across runs.
func Order(tree Tree) []Step {
	var steps []Step
	var visit func(level Tree, parent []string)
	visit = func(level Tree, parent []string) {
		for _, name := range level.Names() {
			path := make([]string, len(parent)+1)
			copy(path, parent)
			path[len(parent)] = name

			if n := level[name]; !n.IsLeaf() {
				visit(n.Children, path)
			}
			steps = append(steps, Step{Path: path, Name: name})
		}
	}
	visit(tree, nil)

	return append(steps, Step{Root: true})
}
