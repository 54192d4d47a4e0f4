package agent

import (
	"context"
	"errors"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/component"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/supplementary"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tokens"
)

// Outcome reports what ProcessModule did.
type Outcome int

const (
	// Generated means an agent ran and finished.
	Generated Outcome = iota
	// Skipped means the module's document (or the repository overview)
	// already existed, so nothing ran.
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "generated"
}

// Options configures an Orchestrator.
type Options struct {
	Agent      Agent
	Store      *artifact.Store
	Components component.Set
	Counter    tokens.Counter
	// Supplementary holds every collected supplementary file; each module
	// receives the subset relevant to its components.
	Supplementary supplementary.Files
	// MaxDepth is the deepest scope whose sub-modules may spawn again.
	MaxDepth int
	// LeafThreshold is the token size at or above which a multi-file
	// sub-module may spawn.
	LeafThreshold int
	Logger        *logging.Logger
}

// Orchestrator runs top-level documentation agents and the sub-module
// spawners they use.
type Orchestrator struct {
	agent         Agent
	store         *artifact.Store
	components    component.Set
	counter       tokens.Counter
	supplementary supplementary.Files
	maxDepth      int
	leafThreshold int
	logger        *logging.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	counter := opts.Counter
	if counter == nil {
		counter = tokens.NewEstimator()
	}
	return &Orchestrator{
		agent:         opts.Agent,
		store:         opts.Store,
		components:    opts.Components,
		counter:       counter,
		supplementary: opts.Supplementary,
		maxDepth:      opts.MaxDepth,
		leafThreshold: opts.LeafThreshold,
		logger:        logger,
	}
}

// ProcessModule documents the module name at path over ids.
//
// If the repository overview or the module's document already exists the
// tree is returned unchanged and nothing runs. Otherwise the agent works on a
// copy of tree, which is returned with any sub-modules the agent spawned.
// The agent gets a Spawner only when the module spans more than one file.
func (o *Orchestrator) ProcessModule(ctx context.Context, name string, ids []string, path []string, tree moduletree.Tree) (moduletree.Tree, Outcome, error) {
	log := o.logger.WithModule(path)

	if o.store.Exists(artifact.Overview) {
		log.Info("overview already exists, skipping module", "module_name", name)
		return tree, Skipped, nil
	}
	if o.store.DocExists(name) {
		log.Info("module document already exists, skipping", "module_name", name)
		return tree, Skipped, nil
	}

	working := tree.Clone()
	scope := NewScope(path)
	task := o.task(name, scope, ids, working)

	var spawner Spawner
	if o.components.DistinctFiles(ids) > 1 {
		spawner = &treeSpawner{o: o, scope: scope, tree: working}
	}

	log.Info("documenting module",
		"module_name", name,
		"components", len(ids),
		"can_spawn", spawner != nil,
	)
	if err := o.agent.Document(ctx, task, spawner); err != nil {
		return nil, Generated, moduleError(err, path)
	}

	if !o.store.DocExists(name) {
		log.Warn("agent finished without writing a document", "module_name", name)
	}
	return working, Generated, nil
}

func (o *Orchestrator) task(name string, scope Scope, ids []string, tree moduletree.Tree) Task {
	return Task{
		Name:          name,
		Scope:         scope,
		ComponentIDs:  append([]string(nil), ids...),
		Tree:          tree,
		Supplementary: supplementary.Filter(o.supplementary, o.components.Paths(ids)),
	}
}

// isComplex reports whether a sub-module spawned at depth may spawn again.
// A sub-module spanning a single file is never complex.
func (o *Orchestrator) isComplex(ids []string, depth int) bool {
	if o.components.DistinctFiles(ids) <= 1 {
		return false
	}
	if depth >= o.maxDepth {
		return false
	}
	return o.counter.Count(o.components.FormatSources(ids)) >= o.leafThreshold
}

// moduleError attaches the module path to err unless it already carries one.
func moduleError(err error, path []string) error {
	var genErr *cwerrors.GenerationError
	if errors.As(err, &genErr) && len(genErr.Path) > 0 {
		return err
	}
	return cwerrors.NewGenerationError("module documentation failed", err).WithModule(path)
}
