// Package progress reports how far a documentation run has got by reading
// the artifacts in the docs directory.
package progress

import (
	"errors"
	"time"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

// Module is one step of the processing order.
type Module struct {
	Path []string
	Name string
	// Parent is true for modules documented by overview synthesis; the
	// repository overview is a parent with an empty path.
	Parent bool
	Done   bool
}

// Label renders the module path for display.
func (m Module) Label() string {
	if len(m.Path) == 0 {
		return "(repository overview)"
	}
	return cwerrors.FormatPath(m.Path)
}

// Snapshot is the state of the docs directory at one point in time.
type Snapshot struct {
	Modules []Module
	// Tree names the module tree the order was taken from: the working tree
	// when present, else the planning snapshot.
	Tree     string
	Metadata *artifact.Metadata
	TakenAt  time.Time
}

// Done counts finished modules.
func (s *Snapshot) Done() int {
	n := 0
	for _, m := range s.Modules {
		if m.Done {
			n++
		}
	}
	return n
}

// Total counts all modules, including the repository overview.
func (s *Snapshot) Total() int {
	return len(s.Modules)
}

// Complete reports whether the repository overview exists.
func (s *Snapshot) Complete() bool {
	for _, m := range s.Modules {
		if len(m.Path) == 0 {
			return m.Done
		}
	}
	return false
}

// Take reads the docs directory behind store. It fails with
// ErrArtifactNotFound when no module tree has been written yet.
func Take(store *artifact.Store) (*Snapshot, error) {
	name := artifact.ModuleTree
	tree, err := store.LoadTree(name)
	if errors.Is(err, cwerrors.ErrArtifactNotFound) {
		name = artifact.FirstModuleTree
		tree, err = store.LoadTree(name)
	}
	if err != nil {
		return nil, err
	}

	overviewDone := store.Exists(artifact.Overview)
	snap := &Snapshot{Tree: name, TakenAt: time.Now()}
	for _, step := range moduletree.Order(tree) {
		if step.Root {
			snap.Modules = append(snap.Modules, Module{Parent: true, Name: "overview", Done: overviewDone})
			continue
		}
		snap.Modules = append(snap.Modules, Module{
			Path:   step.Path,
			Name:   step.Name,
			Parent: !step.IsLeafIn(tree),
			Done:   store.DocExists(step.Name),
		})
	}

	if meta, err := store.ReadMetadata(); err == nil {
		snap.Metadata = meta
	}
	return snap, nil
}
