// Package util holds small helpers shared by the pipeline and the CLI.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Preview flattens s onto one line and cuts it to at most maxLen runes,
// ending in "..." when cut. Used to put LLM responses into log attributes.
func Preview(s string, maxLen int) string {
	flat := strings.Join(strings.Fields(s), " ")
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(flat)
	if len(runes) <= maxLen {
		return flat
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI cuts a styled string to maxWidth terminal columns, keeping
// escape sequences intact and ending in "..." when cut.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
