package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/config"
	"github.com/aniruddha-adhikary/CodeWiki/internal/docgen"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/event"
	"github.com/aniruddha-adhikary/CodeWiki/internal/llm"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/projection"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
)

// Replaced in tests.
var (
	newGenerator = llm.NewFromConfig
	lockDocs     = func(dir string) (docgen.Unlocker, error) {
		l, err := artifact.Lock(dir)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate documentation for a repository",
	Long: `Generate documentation for every module of the repository.

The component graph is read from the dependency analyzer output given by
--components. On the first run the components are clustered into a module
tree, which is saved as first_module_tree.json and reused by later runs.
Leaf modules are documented first, then parent modules, and finally the
repository overview.

Modules whose document already exists are skipped, so rerunning after an
interruption or a failed module only generates what is missing.

Examples:
  codewiki generate --components deps.json --repo ./myproject
  codewiki generate --components deps.json --projection onboarding
  codewiki generate --components deps.json --max-depth 1 --docs-dir ./wiki`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// pipelineFlags maps the flags shared by generate and cluster to config keys.
var pipelineFlags = map[string]string{
	"components": "components_file",
	"repo":       "repo_path",
	"docs-dir":   "docs_dir",
	"projection": "projection",
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addPipelineFlags(generateCmd)
	generateCmd.Flags().String("commit", "", "Commit id recorded in metadata (default: repository HEAD)")
	generateCmd.Flags().Int("max-depth", 0, "Deepest level a sub-module agent may spawn from")
	generateCmd.Flags().Bool("quiet", false, "Only print the final summary")
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("components", "", "Dependency analyzer output (JSON component graph)")
	cmd.Flags().String("repo", "", "Repository to document (default: current directory)")
	cmd.Flags().String("docs-dir", "", "Directory documentation is written to (default: ./docs)")
	cmd.Flags().String("projection", "", "Built-in projection name or projection file")
}

func generateFlags() map[string]string {
	keys := map[string]string{
		"commit":    "commit_id",
		"max-depth": "generation.max_depth",
	}
	for flag, key := range pipelineFlags {
		keys[flag] = key
	}
	return keys
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, generateFlags())
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cwd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	quiet, _ := cmd.Flags().GetBool("quiet")
	out := cmd.OutOrStdout()
	bus := event.NewBus(logger)
	bus.SubscribeAll(event.LogTo(logger))
	if !quiet {
		subscribeProgress(bus, out)
	}

	driver, err := newDriver(cfg, cwd, bus, logger)
	if err != nil {
		return err
	}

	ctx, stop := runContext(cmd)
	defer stop()

	stats, err := driver.Run(ctx)
	if stats != nil {
		printStats(out, stats, driver.Store().Dir())
	}
	if err != nil {
		if cwerrors.Is(err, cwerrors.ErrDocsLocked) {
			return fmt.Errorf("another run is writing to %s: %w", driver.Store().Dir(), err)
		}
		if cwerrors.IsFatal(err) {
			return fmt.Errorf("run aborted, completed modules are kept: %w", err)
		}
		return err
	}
	if len(stats.Failed) > 0 {
		return fmt.Errorf("%d module(s) failed; rerun to retry them", len(stats.Failed))
	}
	return nil
}

// newDriver builds a docgen.Driver for cfg over the OS filesystem.
func newDriver(cfg *config.Config, cwd string, bus *event.Bus, logger *logging.Logger) (*docgen.Driver, error) {
	fsys := afero.NewOsFs()
	proj, err := resolveProjection(fsys, cfg, cwd)
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure %s backend: %w", cfg.LLM.Backend, err)
	}
	return docgen.New(docgen.Options{
		Config:     cfg,
		BaseDir:    cwd,
		Fs:         fsys,
		Generator:  gen,
		Projection: proj,
		Lock:       lockDocs,
		Bus:        bus,
		Logger:     logger,
	})
}

// resolveProjection loads the configured projection; none is configured when
// cfg.Projection is empty.
func resolveProjection(fsys afero.Fs, cfg *config.Config, cwd string) (*projection.Projection, error) {
	if cfg.Projection == "" {
		return nil, nil
	}
	return projection.Resolve(fsys, cfg.Projection, cwd)
}

// subscribeProgress prints one line per module event.
func subscribeProgress(bus *event.Bus, out io.Writer) {
	bus.Subscribe(event.TypeClusteringCompleted, func(e event.Event) {
		ev := e.(event.ClusteringCompletedEvent)
		fmt.Fprintf(out, "%s %d modules, depth %d (%s)\n",
			styles.Primary.Render("planned"), ev.Modules, ev.Depth, ev.Source)
	})
	bus.Subscribe(event.TypeModuleCompleted, func(e event.Event) {
		ev := e.(event.ModuleCompletedEvent)
		fmt.Fprintf(out, "%s %s %s\n", statusIcon(styles.StatusDone), moduleLabel(ev.Path),
			styles.Muted.Render(ev.Duration.Round(100*time.Millisecond).String()))
	})
	bus.Subscribe(event.TypeModuleSkipped, func(e event.Event) {
		ev := e.(event.ModuleSkippedEvent)
		fmt.Fprintf(out, "%s %s %s\n", statusIcon(styles.StatusPending), moduleLabel(ev.Path),
			styles.Muted.Render("already documented"))
	})
	bus.Subscribe(event.TypeModuleFailed, func(e event.Event) {
		ev := e.(event.ModuleFailedEvent)
		fmt.Fprintf(out, "%s %s %s\n", statusIcon(styles.StatusFailed), moduleLabel(ev.Path),
			styles.ErrorMsg.Render(ev.Error))
	})
}

func statusIcon(status string) string {
	return lipgloss.NewStyle().Foreground(styles.StatusColor(status)).Render(styles.StatusIcon(status))
}

func moduleLabel(path []string) string {
	if len(path) == 0 {
		return "(repository overview)"
	}
	return cwerrors.FormatPath(path)
}

func printStats(out io.Writer, stats *docgen.Stats, docsDir string) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Generated: %d  Skipped: %d  Failed: %d  LLM calls: %d  (%s)\n",
		len(stats.Generated), len(stats.Skipped), len(stats.Failed), stats.Calls,
		stats.Duration.Round(time.Second))
	for _, path := range stats.Failed {
		fmt.Fprintf(out, "  %s %s\n", statusIcon(styles.StatusFailed), moduleLabel(path))
	}
	fmt.Fprintf(out, "Documentation: %s\n", docsDir)
}

// runContext returns the command context, canceled on interrupt.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
