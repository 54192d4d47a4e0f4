package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/progress"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
)

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 100

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show documentation progress",
	Long: `Show which modules of the docs directory have been documented.

The module list follows the processing order of the working module tree
(module_tree.json), or of the planning snapshot when no run has started yet.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow documentation progress live",
	Long: `Follow a running 'codewiki generate' from another terminal.

Opens an interactive progress view when stdout is a terminal. Otherwise a
summary line is printed on every change until the repository overview has
been written.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	statusCmd.Flags().String("docs-dir", "", "Directory documentation is written to (default: ./docs)")
	watchCmd.Flags().String("docs-dir", "", "Directory documentation is written to (default: ./docs)")
}

func openStore(cmd *cobra.Command) (*artifact.Store, error) {
	cfg, err := loadConfig(cmd, map[string]string{"docs-dir": "docs_dir"})
	if err != nil {
		return nil, err
	}
	cwd, err := workingDir()
	if err != nil {
		return nil, err
	}
	return artifact.NewStore(afero.NewOsFs(), cfg.ResolveDocsDir(cwd)), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	snap, err := progress.Take(store)
	if err != nil {
		if cwerrors.Is(err, cwerrors.ErrArtifactNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No documentation run found in %s.\n", store.Dir())
			return nil
		}
		return err
	}

	printSnapshot(cmd.OutOrStdout(), snap, terminalWidth())
	return nil
}

func printSnapshot(out io.Writer, snap *progress.Snapshot, width int) {
	fmt.Fprintln(out, tui.RenderSummary(snap))
	fmt.Fprintln(out)
	for _, row := range tui.RenderModules(snap, width) {
		fmt.Fprintln(out, row)
	}
	if meta := snap.Metadata; meta != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s %s with %s, %d LLM calls\n",
			styles.Muted.Render("last completed run:"),
			meta.GenerationInfo.Timestamp.Local().Format("2006-01-02 15:04"),
			meta.GenerationInfo.MainModel,
			meta.Statistics.GenerationCalls)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	if err := store.Ensure(); err != nil {
		return err
	}
	watcher, err := progress.NewWatcher(store, nil)
	if err != nil {
		return err
	}

	ctx, stop := runContext(cmd)
	defer stop()

	updates := make(chan *progress.Snapshot)
	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Run(ctx, updates) }()

	if isatty.IsTerminal(os.Stdout.Fd()) {
		if err := tui.New(store.Dir(), updates).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		stop()
		return ignoreCanceled(<-errCh)
	}

	out := cmd.OutOrStdout()
	for snap := range updates {
		fmt.Fprintln(out, tui.RenderSummary(snap))
		if snap.Complete() {
			stop()
		}
	}
	return ignoreCanceled(<-errCh)
}

func ignoreCanceled(err error) error {
	if err == nil || cwerrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}
