package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/warp/roster-engine/roster"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	manualStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

var columnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#666666")).
	Padding(0, 1).
	Width(34)

// Plan renders the board: one bordered column per shift, side by side.
// Manual placements are marked with "*".
func Plan(plan *roster.WeekPlan, catalog *roster.Catalog) string {
	if catalog == nil {
		catalog = roster.NewCatalog(nil, nil, nil, nil)
	}
	cols := make([]string, 0, len(roster.Priority))
	for _, s := range roster.Priority {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", s.Label(), len(plan.Columns[s]))))
		for _, id := range plan.Columns[s] {
			b.WriteString("\n")
			line := workerName(catalog, id)
			if t := taskName(catalog, plan.Tasks[id]); t != "" {
				line += dimStyle.Render(" · " + t)
			}
			if e := equipmentName(catalog, plan.Equipment[id]); e != "" {
				line += dimStyle.Render(" [" + e + "]")
			}
			if plan.Provenance[id] == roster.ProvenanceManual {
				line = manualStyle.Render("*") + line
			}
			b.WriteString(line)
		}
		if len(plan.Columns[s]) == 0 {
			b.WriteString("\n" + dimStyle.Render("(empty)"))
		}
		cols = append(cols, columnStyle.Render(b.String()))
	}
	title := titleStyle.Render(fmt.Sprintf("Week of %s", plan.Week))
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

// Report renders totals, the shift -> group -> task tree, and warnings.
func Report(rep *roster.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Report for %s", rep.Week)))
	b.WriteString(fmt.Sprintf("\n%d assignment(s)\n", rep.Total))

	for i, sn := range rep.Tree {
		share := ""
		if i < len(rep.Totals) {
			share = fmt.Sprintf(" %s%%", rep.Totals[i].Share.StringFixed(1))
		}
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %d%s", sn.Shift.Label(), sn.Total, share)))
		for _, g := range sn.Groups {
			b.WriteString(fmt.Sprintf("\n  %s  %d", g.Name, g.Total))
			for _, tc := range g.Tasks {
				label := tc.Label
				if tc.Invalid {
					label = invalidStyle.Render(label)
				}
				b.WriteString(fmt.Sprintf("\n    %-28s %d", label, tc.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Warnings"))
		for _, w := range rep.Warnings {
			b.WriteString(fmt.Sprintf("\n  %s %s", warnStyle.Render("!"), w.Message))
		}
		b.WriteString("\n")
	}
	return b.String()
}
