// Package docgen drives a documentation run: it plans the module tree,
// walks it leaves first, and writes one document per module plus the
// repository overview. A run resumes where an earlier one stopped because
// every step is skipped when its document already exists.
package docgen

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/aniruddha-adhikary/CodeWiki/internal/agent"
	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/cluster"
	"github.com/aniruddha-adhikary/CodeWiki/internal/component"
	"github.com/aniruddha-adhikary/CodeWiki/internal/config"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/event"
	"github.com/aniruddha-adhikary/CodeWiki/internal/llm"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/projection"
	"github.com/aniruddha-adhikary/CodeWiki/internal/prompt"
	"github.com/aniruddha-adhikary/CodeWiki/internal/supplementary"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tokens"
	"github.com/aniruddha-adhikary/CodeWiki/internal/util"
)

// Snapshot sources reported in ClusteringCompletedEvent.
const (
	SourceSaved      = "saved"
	SourceProjection = "projection"
	SourceClustered  = "clustered"
)

// Unlocker releases the docs directory lock.
type Unlocker interface {
	Unlock() error
}

// Options configures a Driver.
type Options struct {
	Config *config.Config
	// BaseDir resolves relative repository, docs and components paths.
	BaseDir string
	Fs      afero.Fs
	// Generator answers every clustering, documentation and overview prompt.
	Generator llm.Generator
	// Counter sizes component sets; defaults to the configured tiktoken
	// encoding.
	Counter tokens.Counter
	// Projection is optional; nil runs without projection steering.
	Projection *projection.Projection
	// Agent overrides the documentation agent; defaults to an LLMAgent over
	// Generator.
	Agent agent.Agent
	// Lock, when set, guards the docs directory for the duration of Run.
	Lock   func(dir string) (Unlocker, error)
	Bus    *event.Bus
	Logger *logging.Logger
}

// Driver runs documentation generation.
type Driver struct {
	cfg        *config.Config
	baseDir    string
	fs         afero.Fs
	gen        *llm.Counting
	counter    tokens.Counter
	projection *projection.Projection
	agent      agent.Agent
	lock       func(dir string) (Unlocker, error)
	bus        *event.Bus
	logger     *logging.Logger
	store      *artifact.Store
}

// New creates a Driver.
func New(opts Options) (*Driver, error) {
	if opts.Config == nil {
		return nil, cwerrors.NewValidationError("config is required").WithField("config")
	}
	if opts.Generator == nil {
		return nil, cwerrors.NewValidationError("text generator is required").WithField("generator")
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	counter := opts.Counter
	if counter == nil {
		counter = tokens.New(opts.Config.Tokens.Encoding, logger)
	}

	return &Driver{
		cfg:        opts.Config,
		baseDir:    opts.BaseDir,
		fs:         fsys,
		gen:        llm.NewCounting(opts.Generator),
		counter:    counter,
		projection: opts.Projection,
		agent:      opts.Agent,
		lock:       opts.Lock,
		bus:        opts.Bus,
		logger:     logger,
		store:      artifact.NewStore(fsys, opts.Config.ResolveDocsDir(opts.BaseDir)),
	}, nil
}

// Store returns the artifact store the driver writes to.
func (d *Driver) Store() *artifact.Store {
	return d.store
}

// Calls returns the number of generation requests made so far.
func (d *Driver) Calls() int {
	return d.gen.Calls()
}

// Stats summarises a run.
type Stats struct {
	RunID     string
	Generated [][]string
	Skipped   [][]string
	Failed    [][]string
	Calls     int
	Duration  time.Duration
}

// Plan is the outcome of the planning phase.
type Plan struct {
	Graph    *component.Graph
	Snapshot moduletree.Tree
	Source   string
}

// Run executes the whole pipeline: plan, document every module, write the
// run metadata.
func (d *Driver) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := d.logger.WithRun(runID)

	if err := d.store.Ensure(); err != nil {
		return nil, err
	}
	if d.lock != nil {
		l, err := d.lock(d.store.Dir())
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := l.Unlock(); err != nil {
				log.Warn("failed to release docs lock", "error", err.Error())
			}
		}()
	}

	log.Info("generation started",
		"repo", d.cfg.ResolveRepoPath(d.baseDir),
		"docs_dir", d.store.Dir(),
		"projection", d.projectionName(),
	)

	plan, err := d.plan(ctx, log)
	if err != nil {
		d.bus.Publish(event.NewRunCompletedEvent(runID, 0, 0, 0, d.Calls(), err))
		return nil, err
	}

	if !d.store.Exists(artifact.ModuleTree) {
		if err := d.store.SaveTree(artifact.ModuleTree, plan.Snapshot.Clone()); err != nil {
			return nil, err
		}
	}

	supp, err := d.collectSupplementary(log)
	if err != nil {
		return nil, err
	}

	stats, err := d.GenerateDocs(ctx, plan, d.orchestrator(plan.Graph, supp, log))
	stats.RunID = runID
	stats.Calls = d.Calls()
	stats.Duration = time.Since(start)
	d.bus.Publish(event.NewRunCompletedEvent(runID, len(stats.Generated), len(stats.Skipped), len(stats.Failed), stats.Calls, err))
	if err != nil {
		log.Error("generation aborted", "error", err.Error())
		return stats, err
	}

	if err := d.writeMetadata(ctx, runID, plan); err != nil {
		return stats, err
	}
	log.Info("generation finished",
		"generated", len(stats.Generated),
		"skipped", len(stats.Skipped),
		"failed", len(stats.Failed),
		"calls", stats.Calls,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}

// PlanOnly loads the component graph and produces the planning snapshot,
// clustering when no snapshot exists yet.
func (d *Driver) PlanOnly(ctx context.Context) (*Plan, error) {
	if err := d.store.Ensure(); err != nil {
		return nil, err
	}
	return d.plan(ctx, d.logger)
}

func (d *Driver) plan(ctx context.Context, log *logging.Logger) (*Plan, error) {
	graph, err := d.loadGraph()
	if err != nil {
		return nil, err
	}
	log.Info("component graph loaded", "components", len(graph.Components), "leaf_nodes", len(graph.LeafIDs))

	snapshot, err := d.store.LoadTree(artifact.FirstModuleTree)
	if err == nil {
		log.Info("using saved planning snapshot", "modules", snapshot.LeafCount())
		d.bus.Publish(event.NewClusteringCompletedEvent(snapshot.LeafCount(), snapshot.Depth(), SourceSaved))
		return &Plan{Graph: graph, Snapshot: snapshot, Source: SourceSaved}, nil
	}
	if !errors.Is(err, cwerrors.ErrArtifactNotFound) {
		return nil, err
	}

	source := SourceClustered
	precomputed := d.projection.Precomputed()
	if precomputed != nil {
		source = SourceProjection
	}

	engine := cluster.NewEngine(d.gen, d.counter, log)
	snapshot, err = engine.Cluster(ctx, cluster.Request{
		IDs:         graph.LeafIDs,
		Components:  graph.Components,
		Budget:      d.cfg.Clustering.MaxTokensPerModule,
		Directive:   d.projection.Directive(),
		Precomputed: precomputed,
	})
	if err != nil {
		log.Error("clustering failed", "error", err.Error())
		return nil, err
	}
	if err := d.store.SaveTree(artifact.FirstModuleTree, snapshot); err != nil {
		return nil, err
	}

	log.Info("planning snapshot saved", "source", source, "modules", snapshot.LeafCount(), "depth", snapshot.Depth())
	d.bus.Publish(event.NewClusteringCompletedEvent(snapshot.LeafCount(), snapshot.Depth(), source))
	return &Plan{Graph: graph, Snapshot: snapshot, Source: source}, nil
}

func (d *Driver) loadGraph() (*component.Graph, error) {
	if strings.TrimSpace(d.cfg.ComponentsFile) == "" {
		return nil, cwerrors.NewValidationError("no components file configured").WithField("components_file")
	}
	path := d.cfg.ComponentsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.baseDir, path)
	}
	return component.Load(d.fs, path)
}

func (d *Driver) collectSupplementary(log *logging.Logger) (supplementary.Files, error) {
	if d.projection == nil || len(d.projection.SupplementaryFilePatterns) == 0 {
		return nil, nil
	}
	files, err := supplementary.NewCollector(d.fs, log).
		Collect(d.cfg.ResolveRepoPath(d.baseDir), d.projection.SupplementaryFilePatterns)
	if err != nil {
		return nil, err
	}
	log.Info("supplementary files collected", "files", len(files))
	return files, nil
}

func (d *Driver) orchestrator(graph *component.Graph, supp supplementary.Files, log *logging.Logger) *agent.Orchestrator {
	ag := d.agent
	if ag == nil {
		supplementaryRole := ""
		if d.projection != nil {
			supplementaryRole = d.projection.SupplementaryFileRole
		}
		ag = agent.NewLLMAgent(agent.LLMAgentOptions{
			Generator:         d.gen,
			Store:             d.store,
			Components:        graph.Components,
			MaxTurns:          d.cfg.Generation.AgentMaxTurns,
			Blocks:            d.blocks(),
			SupplementaryRole: supplementaryRole,
			Logger:            log,
		})
	}
	return agent.NewOrchestrator(agent.Options{
		Agent:         ag,
		Store:         d.store,
		Components:    graph.Components,
		Counter:       d.counter,
		Supplementary: supp,
		MaxDepth:      d.projection.MaxDepth(d.cfg.Generation.MaxDepth),
		LeafThreshold: d.cfg.Clustering.MaxTokensPerLeafModule,
		Logger:        log,
	})
}

// blocks compiles the projection and appends the configured custom
// instructions.
func (d *Driver) blocks() prompt.Blocks {
	c := projection.Compile(d.projection)
	custom := c.CustomInstructions
	if extra := strings.TrimSpace(d.cfg.Generation.CustomInstructions); extra != "" {
		if custom != "" {
			custom += "\n"
		}
		custom += extra
	}
	return prompt.Blocks{
		CodeContext:        c.CodeContext,
		FrameworkContext:   c.FrameworkContext,
		ObjectivesOverride: c.ObjectivesOverride,
		CustomInstructions: custom,
	}
}

func (d *Driver) projectionName() string {
	if d.projection == nil {
		return ""
	}
	return d.projection.Name
}

func (d *Driver) writeMetadata(ctx context.Context, runID string, plan *Plan) error {
	commit := d.cfg.CommitID
	if commit == "" {
		if head, err := util.HeadCommit(ctx, d.cfg.ResolveRepoPath(d.baseDir)); err == nil {
			commit = head
		}
	}
	return d.store.WriteMetadata(artifact.Metadata{
		GenerationInfo: artifact.GenerationInfo{
			Timestamp: time.Now().UTC(),
			MainModel: d.cfg.LLM.Model,
			RepoPath:  d.cfg.ResolveRepoPath(d.baseDir),
			CommitID:  commit,
			RunID:     runID,
		},
		Statistics: artifact.Statistics{
			TotalComponents: len(plan.Graph.Components),
			LeafNodes:       len(plan.Graph.LeafIDs),
			MaxDepth:        d.projection.MaxDepth(d.cfg.Generation.MaxDepth),
			GenerationCalls: d.Calls(),
		},
		Projection: d.projectionName(),
	})
}
