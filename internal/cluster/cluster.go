// Package cluster partitions a component set into a nested module tree under
// a token budget, asking the text-generation backend for groupings.
package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/component"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/llm"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/prompt"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tagparse"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tokens"
)

// Request describes one clustering run.
type Request struct {
	// IDs are the components to partition.
	IDs []string
	// Components resolves ids to their source.
	Components component.Set
	// Budget is the token size below which a set is not subdivided.
	Budget int
	// Directive optionally describes the desired grouping strategy.
	Directive string
	// Precomputed, when non-nil, is returned unchanged without any
	// generation calls.
	Precomputed moduletree.Tree
}

// Engine runs the clustering algorithm.
type Engine struct {
	gen     llm.Generator
	counter tokens.Counter
	logger  *logging.Logger
}

// NewEngine creates an Engine.
func NewEngine(gen llm.Generator, counter tokens.Counter, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Engine{gen: gen, counter: counter, logger: logger.WithPhase("clustering")}
}

// Cluster partitions req.IDs into a module tree. An empty tree means the set
// fits the budget and should be documented as one flat module.
//
// A response that does not partition the ids exactly (an id missing,
// repeated, or unknown) fails with a *ClusteringError and no tree is
// returned.
func (e *Engine) Cluster(ctx context.Context, req Request) (moduletree.Tree, error) {
	if req.Precomputed != nil {
		e.logger.Info("using precomputed grouping", "modules", len(req.Precomputed))
		return req.Precomputed, nil
	}
	tree := moduletree.Tree{}
	if err := e.cluster(ctx, req, req.IDs, "", tree, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// cluster fills into with the grouping of ids. root is the whole tree being
// built, shown to nested prompts.
func (e *Engine) cluster(ctx context.Context, req Request, ids []string, module string, root, into moduletree.Tree) error {
	if err := ctx.Err(); err != nil {
		return cwerrors.Wrap(err, "clustering canceled")
	}

	size := e.counter.Count(req.Components.FormatSources(ids))
	if size < req.Budget {
		e.logger.Debug("component set fits budget",
			"module", module,
			"components", len(ids),
			"tokens", size,
			"budget", req.Budget,
		)
		return nil
	}

	in := prompt.ClusterInput{
		Components: req.Components.FormatList(ids),
		Directive:  req.Directive,
		ModuleName: module,
	}
	if module != "" {
		treeJSON, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode module tree: %w", err)
		}
		in.ModuleTree = string(treeJSON)
	}
	p, err := prompt.Cluster(in)
	if err != nil {
		return err
	}

	e.logger.Info("requesting grouping", "module", module, "components", len(ids), "tokens", size)
	resp, err := e.gen.Generate(ctx, p)
	if err != nil {
		return cwerrors.Wrapf(err, "clustering request failed for %s", moduleLabel(module))
	}

	groups, err := ParseGrouping(resp, ids)
	if err != nil {
		var cerr *cwerrors.ClusteringError
		if errors.As(err, &cerr) {
			cerr.WithModule(module).WithResponse(resp)
		}
		return err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	// A single group holds every id: the caller's node stays a leaf, and at
	// the top level the tree stays empty.
	if len(groups) == 1 {
		e.logger.Warn("grouping returned a single module, not subdividing further",
			"module", module,
			"group", names[0],
		)
		return nil
	}

	for _, name := range names {
		into[name] = groups[name]
	}

	for _, name := range names {
		node := into[name]
		if err := e.cluster(ctx, req, node.Components, name, root, node.Children); err != nil {
			return err
		}
		if len(node.Children) > 0 {
			e.logger.Debug("module subdivided", "module", name, "children", len(node.Children))
		}
	}
	return nil
}

type group struct {
	Path       string   `json:"path"`
	Components []string `json:"components"`
}

// ParseGrouping extracts the GROUPED_COMPONENTS block from resp and checks
// that it partitions ids exactly. Each group becomes a leaf node.
func ParseGrouping(resp string, ids []string) (moduletree.Tree, error) {
	var raw map[string]group
	if err := tagparse.ExtractJSON(resp, tagparse.TagGroupedComponents, &raw); err != nil {
		if errors.Is(err, tagparse.ErrTagMissing) || errors.Is(err, tagparse.ErrTagUnclosed) || errors.Is(err, tagparse.ErrEmptyBody) {
			return nil, cwerrors.NewClusteringError("response has no grouping", cwerrors.ErrGroupingMissing)
		}
		return nil, cwerrors.NewClusteringError(err.Error(), cwerrors.ErrGroupingInvalid)
	}
	if len(raw) == 0 {
		return nil, cwerrors.NewClusteringError("grouping has no modules", cwerrors.ErrGroupingInvalid)
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	owner := make(map[string]string, len(ids))
	var problems []string
	tree := moduletree.Tree{}
	for name, g := range raw {
		if err := artifact.ValidateModuleName(name); err != nil {
			return nil, cwerrors.NewClusteringError(fmt.Sprintf("invalid module name %q", name), err)
		}
		if len(g.Components) == 0 {
			problems = append(problems, fmt.Sprintf("module %q has no components", name))
			continue
		}
		for _, id := range g.Components {
			switch {
			case !want[id]:
				problems = append(problems, fmt.Sprintf("module %q lists unknown component %q", name, id))
			case owner[id] != "":
				problems = append(problems, fmt.Sprintf("component %q is in both %q and %q", id, owner[id], name))
			default:
				owner[id] = name
			}
		}
		node := moduletree.NewLeaf(g.Components)
		node.Path = g.Path
		tree[name] = node
	}
	for _, id := range ids {
		if owner[id] == "" && want[id] {
			problems = append(problems, fmt.Sprintf("component %q is not in any module", id))
			want[id] = false
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, cwerrors.NewClusteringError(strings.Join(problems, "; "), cwerrors.ErrPartitionViolated)
	}
	return tree, nil
}

func moduleLabel(module string) string {
	if module == "" {
		return "repository"
	}
	return "module " + module
}
