// Package ui renders the run loop's terminal output: iteration banners,
// status lines, previews, and the final summary block.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Iron-Ham/tandem/internal/util"
)

// previewCap bounds preview lines on very wide terminals.
const previewCap = 240

// Colors meet WCAG AA contrast (4.5:1) on dark terminal surfaces.
var (
	successColor = lipgloss.Color("#10B981") // Green
	warnColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red (red-400)
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	primaryColor = lipgloss.Color("#A78BFA") // Purple (violet-400)
)

var (
	Banner  = lipgloss.NewStyle().Bold(true)
	Success = lipgloss.NewStyle().Foreground(successColor)
	Failure = lipgloss.NewStyle().Foreground(errorColor)
	Warn    = lipgloss.NewStyle().Foreground(warnColor)
	Muted   = lipgloss.NewStyle().Foreground(mutedColor)
	Title   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
)

// Printer writes styled run output to a terminal.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for out. When out is a terminal its
// width is detected; otherwise 80 columns is assumed.
func NewPrinter(out io.Writer) *Printer {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return &Printer{out: out, width: width}
}

// Bannerf prints a bold header preceded by a blank line.
func (p *Printer) Bannerf(format string, args ...any) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, Banner.Render(fmt.Sprintf(format, args...)))
}

// Infof prints a plain line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Successf prints a green line.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, Success.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints an amber line.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.out, Warn.Render(fmt.Sprintf(format, args...)))
}

// Failf prints a red line.
func (p *Printer) Failf(format string, args ...any) {
	fmt.Fprintln(p.out, Failure.Render(fmt.Sprintf(format, args...)))
}

// Preview prints one muted line of the form "label: text" with text
// flattened onto a single line and the whole line truncated to the
// terminal width, capped at 240 cells.
func (p *Printer) Preview(label, text string) {
	flat := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", " "), "\n", " ")
	line := label + ": " + flat

	width := p.width
	if width > previewCap {
		width = previewCap
	}
	fmt.Fprintln(p.out, Muted.Render(util.TruncateANSI(line, width)))
}

// Summary prints the end-of-run block.
func (p *Printer) Summary(iterations, completedItems, commits int) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, Title.Render("Run complete."))
	fmt.Fprintf(p.out, "Iterations: %d\n", iterations)
	fmt.Fprintf(p.out, "PRD items marked done: %d\n", completedItems)
	fmt.Fprintf(p.out, "Commits created: %d\n", commits)
}
