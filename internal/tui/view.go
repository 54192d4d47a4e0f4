package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aniruddha-adhikary/CodeWiki/internal/progress"
	"github.com/aniruddha-adhikary/CodeWiki/internal/tui/styles"
	"github.com/aniruddha-adhikary/CodeWiki/internal/util"
)

const progressBarWidth = 30

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render("CodeWiki · " + m.title))
	b.WriteString("\n")

	if m.snapshot == nil {
		b.WriteString(styles.Subtitle.Render("Waiting for a module tree..."))
		b.WriteString("\n")
		b.WriteString(m.helpBar())
		return b.String()
	}

	b.WriteString(RenderSummary(m.snapshot))
	b.WriteString("\n\n")

	width := m.width - 4
	if !m.ready || width < 20 {
		width = 76
	}
	rows := RenderModules(m.snapshot, width)
	end := m.offset + m.listHeight()
	if end > len(rows) {
		end = len(rows)
	}
	b.WriteString(styles.ContentBox.Render(strings.Join(rows[m.offset:end], "\n")))
	b.WriteString("\n")
	b.WriteString(m.helpBar())
	return b.String()
}

func (m Model) helpBar() string {
	parts := []string{
		styles.HelpKey.Render("q") + " quit",
		styles.HelpKey.Render("↑/↓") + " scroll",
	}
	if m.closed {
		parts = append(parts, styles.Muted.Render("watch stopped"))
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

// RenderSummary renders the progress bar and counts of a snapshot.
func RenderSummary(s *progress.Snapshot) string {
	done, total := s.Done(), s.Total()
	filled := 0
	if total > 0 {
		filled = done * progressBarWidth / total
	}
	bar := styles.ProgressFilled.Render(strings.Repeat("█", filled)) +
		styles.ProgressEmpty.Render(strings.Repeat("░", progressBarWidth-filled))

	status := fmt.Sprintf("%d/%d modules documented", done, total)
	if s.Complete() {
		status = styles.SuccessMsg.Render("complete") + " · " + status
	}
	return bar + " " + status
}

// RenderModules renders one row per module, truncated to width columns.
// Rows are indented by depth.
func RenderModules(s *progress.Snapshot, width int) []string {
	rows := make([]string, 0, len(s.Modules))
	for _, mod := range s.Modules {
		status := styles.StatusPending
		if mod.Done {
			status = styles.StatusDone
		}
		icon := lipgloss.NewStyle().Foreground(styles.StatusColor(status)).Render(styles.StatusIcon(status))

		label := mod.Name
		if len(mod.Path) == 0 {
			label = mod.Label()
		}
		if mod.Parent {
			label = styles.ParentItem.Render(label)
		}
		indent := ""
		if len(mod.Path) > 1 {
			indent = strings.Repeat("  ", len(mod.Path)-1)
		}
		rows = append(rows, util.TruncateANSI(indent+icon+" "+label, width))
	}
	return rows
}
