package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

// treeSpawner extends the working tree under scope and documents each
// sub-module with a fresh agent run.
type treeSpawner struct {
	o     *Orchestrator
	scope Scope
	tree  moduletree.Tree
}

// Spawn implements Spawner.
func (s *treeSpawner) Spawn(ctx context.Context, specs map[string][]string) (string, error) {
	if len(specs) == 0 {
		return "", cwerrors.NewValidationError("no sub-modules given").WithField("sub_modules")
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		if err := artifact.ValidateModuleName(name); err != nil {
			return "", err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	children := s.tree.EnsurePath(s.scope.Path())
	for _, name := range names {
		children[name] = moduletree.NewLeaf(specs[name])
	}

	log := s.o.logger.WithModule(s.scope.Path())
	for _, name := range names {
		ids := specs[name]
		child := s.scope.Child(name)

		var next Spawner
		if s.o.isComplex(ids, s.scope.Depth()) {
			next = &treeSpawner{o: s.o, scope: child, tree: s.tree}
		}

		log.Info("documenting sub-module",
			"sub_module", name,
			"depth", child.Depth(),
			"components", len(ids),
			"can_spawn", next != nil,
		)
		task := s.o.task(name, child, ids, s.tree)
		if err := s.o.agent.Document(ctx, task, next); err != nil {
			return "", cwerrors.NewSubAgentError("sub-module documentation failed", err).
				WithModule(child.Path()).
				WithDepth(child.Depth())
		}
	}

	docs := make([]string, len(names))
	for i, name := range names {
		docs[i] = artifact.DocName(name)
	}
	return fmt.Sprintf("Generate successfully. Documentations: %s are saved in the working directory.", strings.Join(docs, ", ")), nil
}
