package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
	"github.com/aniruddha-adhikary/CodeWiki/internal/event"
	"github.com/aniruddha-adhikary/CodeWiki/internal/moduletree"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Partition the repository into a module tree",
	Long: `Cluster the components into a module tree without documenting them.

The tree is saved as first_module_tree.json in the docs directory and printed.
When a planning snapshot already exists it is printed unchanged; delete it to
cluster again.`,
	Args: cobra.NoArgs,
	RunE: runCluster,
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the processing order of the module tree",
	Long: `Print the order in which generate documents modules: every module after
all of its descendants, and the repository overview last.

Reads the planning snapshot written by 'codewiki cluster' or 'codewiki generate'.`,
	Args: cobra.NoArgs,
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(orderCmd)

	addPipelineFlags(clusterCmd)
	orderCmd.Flags().String("docs-dir", "", "Directory documentation is written to (default: ./docs)")
}

func runCluster(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, pipelineFlags)
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

	driver, err := newDriver(cfg, cwd, event.NewBus(logger), logger)
	if err != nil {
		return err
	}

	ctx, stop := runContext(cmd)
	defer stop()

	plan, err := driver.PlanOnly(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d components in %d modules (%s)\n\n",
		styles.Primary.Render("planned"), len(plan.Graph.LeafIDs), plan.Snapshot.LeafCount(), plan.Source)
	if len(plan.Snapshot) == 0 {
		fmt.Fprintln(out, "The repository fits in one module and is documented as a whole.")
		return nil
	}
	printTree(out, plan.Snapshot, 0)
	return nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"docs-dir": "docs_dir"})
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	store := artifact.NewStore(afero.NewOsFs(), cfg.ResolveDocsDir(cwd))
	snapshot, err := store.LoadTree(artifact.FirstModuleTree)
	if err != nil {
		if cwerrors.Is(err, cwerrors.ErrArtifactNotFound) {
			return fmt.Errorf("no planning snapshot in %s; run 'codewiki cluster' first", store.Dir())
		}
		return err
	}

	printOrder(cmd.OutOrStdout(), snapshot, cfg.RepoName(cwd))
	return nil
}

// printTree prints tree indented by depth, leaves with their component ids.
func printTree(out io.Writer, tree moduletree.Tree, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, name := range tree.Names() {
		node := tree[name]
		if node.IsLeaf() {
			fmt.Fprintf(out, "%s%s %s\n", indent, name,
				styles.Muted.Render(fmt.Sprintf("(%d components)", len(node.Components))))
			for _, id := range node.Components {
				fmt.Fprintf(out, "%s  - %s\n", indent, id)
			}
			continue
		}
		fmt.Fprintf(out, "%s%s\n", indent, styles.ParentItem.Render(name))
		printTree(out, node.Children, depth+1)
	}
}

// printOrder prints the processing order of snapshot, one numbered step per
// line.
func printOrder(out io.Writer, snapshot moduletree.Tree, repoName string) {
	steps := moduletree.Order(snapshot)
	width := len(fmt.Sprint(len(steps)))
	for i, step := range steps {
		label := cwerrors.FormatPath(step.Path)
		kind := "leaf"
		switch {
		case step.Root:
			label = repoName
			kind = "repository overview"
		case !step.IsLeafIn(snapshot):
			kind = "overview"
		}
		fmt.Fprintf(out, "%*d. %s %s\n", width, i+1, label, styles.Muted.Render("("+kind+")"))
	}
}
