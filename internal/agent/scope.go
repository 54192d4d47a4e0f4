package agent

import cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"

// Scope is an agent's position in the working tree. It is a value: deriving
// a child scope never changes the parent, so siblings always see their own
// path and depth whether an earlier sibling succeeded or failed.
type Scope struct {
	path  []string
	depth int
}

// NewScope returns the scope of a top-level agent documenting the module at
// path. Top-level agents run at depth 1.
func NewScope(path []string) Scope {
	return Scope{path: append([]string(nil), path...), depth: 1}
}

// Child returns the scope of a sub-module named name.
func (s Scope) Child(name string) Scope {
	path := make([]string, len(s.path), len(s.path)+1)
	copy(path, s.path)
	return Scope{path: append(path, name), depth: s.depth + 1}
}

// Path returns a copy of the module path.
func (s Scope) Path() []string {
	return append([]string(nil), s.path...)
}

// Depth returns the recursion depth, 1 for top-level agents.
func (s Scope) Depth() int {
	return s.depth
}

// String renders the path for logs.
func (s Scope) String() string {
	return cwerrors.FormatPath(s.path)
}
