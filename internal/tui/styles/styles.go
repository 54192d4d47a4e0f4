// Package styles holds the lipgloss palette and styles of the progress UI.
package styles

import "github.com/charmbracelet/lipgloss"

// Module statuses rendered by StatusColor and StatusIcon.
const (
	StatusDone    = "done"
	StatusPending = "pending"
	StatusRunning = "running"
	StatusFailed  = "failed"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Parent modules and the repository overview
	ParentItem = lipgloss.NewStyle().
			Bold(true)

	ProgressFilled = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	ProgressEmpty = lipgloss.NewStyle().
			Foreground(BorderColor)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// StatusColor returns the color for a module status.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case StatusDone:
		return SecondaryColor
	case StatusRunning:
		return WarningColor
	case StatusFailed:
		return ErrorColor
	default:
		return MutedColor
	}
}

// StatusIcon returns the icon for a module status.
func StatusIcon(status string) string {
	switch status {
	case StatusDone:
		return "✓"
	case StatusRunning:
		return "●"
	case StatusFailed:
		return "✗"
	default:
		return "○"
	}
}
