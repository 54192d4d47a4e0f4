package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View generation logs",
	Long: `View and filter the debug log written by generate and cluster.

Logs live in <docs_dir>/.codewiki/debug.log.

Examples:
  # Show last 50 lines
  codewiki logs

  # Show everything logged for one module and its sub-modules
  codewiki logs --module core/parser -n 0

  # Follow logs in real-time
  codewiki logs -f

  # Only warnings and errors of the last hour
  codewiki logs --level warn --since 1h

  # Export one run as CSV
  codewiki logs --run 3f2a -n 0 --format csv > run.csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().String("docs-dir", "", "Directory documentation is written to (default: ./docs)")
	logsCmd.Flags().IntP("tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().String("level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().String("since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().String("module", "", "Filter by module path, including nested modules")
	logsCmd.Flags().String("run", "", "Filter by run id")
	logsCmd.Flags().String("grep", "", "Filter by message substring")
	logsCmd.Flags().String("format", "", "Print entries as "+strings.Join(logging.ExportFormats(), ", ")+" instead of colored lines")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"docs-dir": "docs_dir"})
	if err != nil {
		return err
	}
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	logDir := cfg.LogDir(cwd)
	out := cmd.OutOrStdout()

	filter, err := logFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	logPath := filepath.Join(logDir, logging.LogFileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No logs found.\nLogs are stored at: %s\n", logPath)
		return nil
	}

	if follow, _ := cmd.Flags().GetBool("follow"); follow {
		ctx, stop := runContext(cmd)
		defer stop()
		return followLogs(ctx, out, logPath, filter)
	}

	entries, err := logging.AggregateLogs(logDir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)

	tail, _ := cmd.Flags().GetInt("tail")
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return logging.ExportLogEntries(out, entries, format)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(out, formatLogEntry(entry))
	}
	return nil
}

func logFilterFromFlags(cmd *cobra.Command) (logging.LogFilter, error) {
	var filter logging.LogFilter
	if level, _ := cmd.Flags().GetString("level"); level != "" {
		filter.Level = logging.ParseLevel(level)
	}
	if since, _ := cmd.Flags().GetString("since"); since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return filter, fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}
	filter.Module, _ = cmd.Flags().GetString("module")
	filter.RunID, _ = cmd.Flags().GetString("run")
	filter.MessageContains, _ = cmd.Flags().GetString("grep")
	return filter, nil
}

// followLogs prints entries appended to logPath until ctx is done.
func followLogs(ctx context.Context, out io.Writer, logPath string, filter logging.LogFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry, err := logging.ParseLogEntry(line)
		if err != nil {
			fmt.Fprintln(out, line)
			continue
		}
		if len(logging.FilterLogs([]logging.LogEntry{entry}, filter)) == 0 {
			continue
		}
		fmt.Fprintln(out, formatLogEntry(entry))
	}
}

func levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return styles.Muted
	case logging.LevelInfo:
		return styles.Primary
	case logging.LevelWarn:
		return lipgloss.NewStyle().Foreground(styles.WarningColor)
	case logging.LevelError:
		return lipgloss.NewStyle().Foreground(styles.ErrorColor)
	default:
		return styles.Text
	}
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry logging.LogEntry) string {
	var sb strings.Builder

	sb.WriteString(styles.Muted.Render("[" + entry.Timestamp.Local().Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(levelStyle(entry.Level).Render("[" + strings.ToUpper(entry.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	field := func(key, value string) {
		sb.WriteString(" ")
		sb.WriteString(styles.Secondary.Render(key + "="))
		sb.WriteString(value)
	}
	if entry.Module != "" {
		field("module", entry.Module)
	}
	if entry.Phase != "" {
		field("phase", entry.Phase)
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(k, fmt.Sprintf("%v", entry.Attrs[k]))
	}

	return sb.String()
}
