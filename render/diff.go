// Package render turns document changes into human-readable terminal
// output. The human never sees raw tool-call syntax; they see these diffs
// and status lines.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Diff returns a colored unified diff between before and after, labeled
// with the document name. Returns "" when the texts are identical.
func Diff(name, before, after string) string {
	if before == after {
		return ""
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}

	return Colorize(text)
}

// Colorize applies terminal styling to a unified diff.
func Colorize(diff string) string {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(headerStyle.Render(trimmed))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(hunkStyle.Render(trimmed))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(addStyle.Render(trimmed))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(removeStyle.Render(trimmed))
		default:
			sb.WriteString(trimmed)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
