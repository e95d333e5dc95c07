package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/CodMac/go-treesitter-entrypoint-analyzer/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("cyan"))
	analyzedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	noReportStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boxStyle      = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func statusStyle(status model.ProjectStatus) lipgloss.Style {
	switch status {
	case model.ProjectAnalyzed:
		return analyzedStyle
	case model.ProjectNoReport:
		return noReportStyle
	default:
		return failedStyle
	}
}

// RenderSummary 每个项目一行：状态、框架、计数或失败原因，最后是合计
func RenderSummary(outcomes []model.ProjectOutcome) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Entry-point analysis"))

	counts := make(map[model.ProjectStatus]int)
	for _, o := range outcomes {
		counts[o.Status]++

		line := fmt.Sprintf("%s  %s", statusStyle(o.Status).Render(fmt.Sprintf("%-9s", o.Status)), o.Project)
		switch {
		case o.Status == model.ProjectFailed:
			line += detailStyle.Render("  " + o.Message)
		case o.Summary != nil:
			line += detailStyle.Render(fmt.Sprintf("  [%s] %d entry points, %d edges, %d db, %d lookups, %d security",
				o.Framework, o.Summary.EntryPoints, o.Summary.CallEdges,
				o.Summary.DatabaseCalls, o.Summary.RemoteLookups, o.Summary.SecurityRules))
		default:
			line += detailStyle.Render("  no report generated")
		}
		if o.ReportPath != "" {
			line += "\n" + detailStyle.Render("           -> "+o.ReportPath)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", fmt.Sprintf("%d analyzed, %d without report, %d failed",
		counts[model.ProjectAnalyzed], counts[model.ProjectNoReport], counts[model.ProjectFailed]))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func PrintSummary(w io.Writer, outcomes []model.ProjectOutcome) {
	fmt.Fprintln(w, RenderSummary(outcomes))
}
