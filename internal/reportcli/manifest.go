package reportcli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/batch"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// renderManifest prints one row per team member, generated rows first.
func renderManifest(m batch.Manifest) string {
	rows := make([][]string, 0, len(m.Entries)+len(m.Failures))
	for _, e := range m.Entries {
		rows = append(rows, []string{strconv.FormatInt(e.EmployeeID, 10), e.Name, okStyle.Render("ok"), e.FileName})
	}
	for _, f := range m.Failures {
		rows = append(rows, []string{strconv.FormatInt(f.EmployeeID, 10), f.Name, failedStyle.Render("failed"), f.Error})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "STATUS", "FILE / ERROR").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	summary := summaryStyle.Render(fmt.Sprintf("team %d, %s: %d generated, %d failed",
		m.TeamID, m.Date, len(m.Entries), len(m.Failures)))
	return t.String() + "\n" + summary
}
