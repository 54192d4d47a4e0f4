package docgen

import (
	"context"
	"time"

	"github.com/aniruddha-adhikary/CodeWiki/internal/agent"
	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/event"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
)

// GenerateDocs documents every module of plan in processing order: leaf
// modules through orch, parent modules and finally the repository by
// overview synthesis. A snapshot without modules documents the whole
// repository as one module and renames its document to the overview.
//
// Failures of individual modules are logged and skipped so the next run can
// retry them; a failure of the repository overview is returned. The working
// tree is saved after every successful step.
func (d *Driver) GenerateDocs(ctx context.Context, plan *Plan, orch *agent.Orchestrator) (*Stats, error) {
	stats := &Stats{}

	working, err := d.store.LoadTree(artifact.ModuleTree)
	if err != nil {
		return stats, err
	}

	if len(plan.Snapshot) == 0 {
		return stats, d.documentWholeRepo(ctx, plan, orch, working, stats)
	}

	for _, step := range moduletree.Order(plan.Snapshot) {
		if err := ctx.Err(); err != nil {
			return stats, cwerrors.NewGenerationError("generation canceled", cwerrors.ErrCanceled).WithModule(step.Path)
		}

		if step.Root {
			name := d.cfg.RepoName(d.baseDir)
			if err := d.documentRoot(ctx, name, working, stats); err != nil {
				return stats, err
			}
			continue
		}

		log := d.logger.WithModule(step.Path)
		var (
			next    moduletree.Tree
			outcome agent.Outcome
			err     error
		)
		began := time.Now()
		if step.IsLeafIn(plan.Snapshot) {
			node, _ := plan.Snapshot.Lookup(step.Path)
			d.bus.Publish(event.NewModuleStartedEvent(step.Path, step.Name, false))
			next, outcome, err = orch.ProcessModule(ctx, step.Name, node.Components, step.Path, working)
		} else {
			d.bus.Publish(event.NewModuleStartedEvent(step.Path, step.Name, true))
			outcome, err = d.synthesizeOverview(ctx, step.Path, step.Name, working)
			next = working
		}

		overview := !step.IsLeafIn(plan.Snapshot)
		if err != nil {
			if cwerrors.Is(err, cwerrors.ErrCanceled) || ctx.Err() != nil {
				return stats, err
			}
			log.Error("module documentation failed, continuing",
				"module_name", step.Name, "error", err.Error(), "retryable", cwerrors.IsRetryable(err))
			stats.Failed = append(stats.Failed, step.Path)
			d.bus.Publish(event.NewModuleFailedEvent(step.Path, step.Name, overview, err))
			continue
		}

		if outcome == agent.Skipped {
			stats.Skipped = append(stats.Skipped, step.Path)
			d.bus.Publish(event.NewModuleSkippedEvent(step.Path, step.Name, overview))
			continue
		}

		working = next
		if err := d.store.SaveTree(artifact.ModuleTree, working); err != nil {
			return stats, err
		}
		stats.Generated = append(stats.Generated, step.Path)
		d.bus.Publish(event.NewModuleCompletedEvent(step.Path, step.Name, overview, time.Since(began)))
	}
	return stats, nil
}

// documentWholeRepo documents all components as one module named after the
// repository and renames the result to the overview.
func (d *Driver) documentWholeRepo(ctx context.Context, plan *Plan, orch *agent.Orchestrator, working moduletree.Tree, stats *Stats) error {
	name := d.cfg.RepoName(d.baseDir)
	log := d.logger.WithModule(nil)
	log.Info("repository fits in one module, documenting it directly", "components", len(plan.Graph.LeafIDs))

	began := time.Now()
	d.bus.Publish(event.NewModuleStartedEvent(nil, name, false))
	next, outcome, err := orch.ProcessModule(ctx, name, plan.Graph.LeafIDs, nil, working)
	if err != nil {
		d.bus.Publish(event.NewModuleFailedEvent(nil, name, false, err))
		stats.Failed = append(stats.Failed, []string{})
		return rootError(err)
	}

	if outcome == agent.Generated {
		if err := d.store.SaveTree(artifact.ModuleTree, next); err != nil {
			return err
		}
	}
	if !d.store.Exists(artifact.Overview) && d.store.DocExists(name) {
		if err := d.store.Rename(artifact.DocName(name), artifact.Overview); err != nil {
			return rootError(err)
		}
	}

	if outcome == agent.Skipped {
		stats.Skipped = append(stats.Skipped, []string{})
		d.bus.Publish(event.NewModuleSkippedEvent(nil, name, false))
		return nil
	}
	stats.Generated = append(stats.Generated, []string{})
	d.bus.Publish(event.NewModuleCompletedEvent(nil, name, false, time.Since(began)))
	return nil
}

// documentRoot synthesizes the repository overview. Its failure aborts the
// run.
func (d *Driver) documentRoot(ctx context.Context, name string, working moduletree.Tree, stats *Stats) error {
	began := time.Now()
	d.bus.Publish(event.NewModuleStartedEvent(nil, name, true))
	outcome, err := d.synthesizeOverview(ctx, nil, name, working)
	if err != nil {
		d.bus.Publish(event.NewModuleFailedEvent(nil, name, true, err))
		stats.Failed = append(stats.Failed, []string{})
		return rootError(err)
	}
	if outcome == agent.Skipped {
		stats.Skipped = append(stats.Skipped, []string{})
		d.bus.Publish(event.NewModuleSkippedEvent(nil, name, true))
		return nil
	}
	if err := d.store.SaveTree(artifact.ModuleTree, working); err != nil {
		return err
	}
	stats.Generated = append(stats.Generated, []string{})
	d.bus.Publish(event.NewModuleCompletedEvent(nil, name, true, time.Since(began)))
	return nil
}

// rootError marks err as a repository overview failure.
func rootError(err error) error {
	var genErr *cwerrors.GenerationError
	if cwerrors.As(err, &genErr) {
		genErr.WithRoot()
		return err
	}
	return cwerrors.NewGenerationError("repository overview failed", err).WithRoot()
}
