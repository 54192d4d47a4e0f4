package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aniruddha-adhikary/CodeWiki/internal/projection"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
)

var projectionsCmd = &cobra.Command{
	Use:   "projections",
	Short: "List, show, or validate documentation projections",
	Long: `A projection steers clustering and documentation toward one audience:
its clustering goal, documentation objectives, code provenance, and an
optional saved grouping that replaces clustering altogether.

Projections are built in, or read from .json/.yaml files. Files placed in
.codewiki/projections/ can be referenced by name.`,
}

var projectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and project-local projections",
	Args:  cobra.NoArgs,
	RunE:  runProjectionsList,
}

var projectionsShowCmd = &cobra.Command{
	Use:   "show <name-or-path>",
	Short: "Print a projection",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectionsShow,
}

var projectionsValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate projection files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectionsValidate,
}

func init() {
	rootCmd.AddCommand(projectionsCmd)
	projectionsCmd.AddCommand(projectionsListCmd)
	projectionsCmd.AddCommand(projectionsShowCmd)
	projectionsCmd.AddCommand(projectionsValidateCmd)

	projectionsShowCmd.Flags().StringP("format", "f", "yaml", "Output format (yaml or json)")
}

func runProjectionsList(cmd *cobra.Command, args []string) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styles.Primary.Render("Built-in:"))
	for _, name := range projection.Builtins() {
		p, err := projection.Builtin(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-16s %s\n", name, styles.Muted.Render(p.Description))
	}

	local, err := localProjections(afero.NewOsFs(), cwd)
	if err != nil {
		return err
	}
	if len(local) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Primary.Render("Local ("+projection.LocalDir+"):"))
		for _, name := range local {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}

// localProjections lists the projection files under the project-local
// projection directory.
func localProjections(fsys afero.Fs, cwd string) ([]string, error) {
	dir := filepath.Join(cwd, projection.LocalDir)
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func runProjectionsShow(cmd *cobra.Command, args []string) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	p, err := projection.Resolve(afero.NewOsFs(), args[0], cwd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	var data []byte
	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err = projection.EncodeYAML(p)
	case "json":
		data, err = projection.EncodeJSON(p)
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runProjectionsValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fsys := afero.NewOsFs()
	invalid := 0
	for _, path := range args {
		if _, err := projection.Load(fsys, path); err != nil {
			invalid++
			fmt.Fprintf(out, "%s %s: %s\n", statusIcon(styles.StatusFailed), path, err.Error())
			continue
		}
		fmt.Fprintf(out, "%s %s\n", statusIcon(styles.StatusDone), path)
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d projection file(s) invalid", invalid, len(args))
	}
	return nil
}
