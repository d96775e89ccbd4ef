// Package util provides shared string helpers used across the codebase.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateString caps s at maxLen runes, replacing the overflow with an
// ellipsis. Escape codes and display width are not considered; anything
// headed for the terminal should go through TruncateANSI instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateANSI caps s at maxWidth terminal columns, replacing the overflow
// with an ellipsis. ANSI sequences pass through unbroken and wide
// characters count by their printed width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// The ellipsis counts against maxWidth.
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// ShellQuote wraps s in single quotes for safe interpolation into a shell
// command line. Embedded single quotes are closed, escaped, and reopened
// ('it”s' becomes 'it'\”s'), which is the POSIX-portable form.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FormatList renders items as "- item" lines joined by newlines, or "(none)"
// when the list is empty. Prompt sections use it so agents always see an
// explicit marker instead of a blank block.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
