package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mark3labs/swagger2api/internal/generate"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#27ca3f"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#bababa"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9ca24"))
)

// printSummary prints one line per generated group followed by the
// tolerated warnings of the run.
func printSummary(w io.Writer, outDir string, sum *generate.Summary) {
	check := successStyle.Render("✓")
	for _, g := range sum.Groups {
		detail := fmt.Sprintf("%d operations, %d written, %d unchanged", g.Operations, g.Written, g.Unchanged)
		if len(g.Rewritten) > 0 {
			detail += fmt.Sprintf(", kept names: %s", strings.Join(g.Rewritten, ", "))
		}
		if len(g.Removed) > 0 {
			detail += fmt.Sprintf(", removed: %s", strings.Join(g.Removed, ", "))
		}
		fmt.Fprintf(w, "%s %s %s\n", check, labelStyle.Render(g.Dir+":"), detail)
	}
	for _, warning := range sum.Warnings {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("!"), warning.String())
	}
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Generated %d groups into %s", len(sum.Groups), outDir)))
}
