package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/coinbag/internal/insights"
)

type OverspendingModel struct {
	CommonModel

	reports Reporter
	period  insights.Period
	report  insights.OverspendingReport
	table   table.Model
}

func NewOverspendingModel(reports Reporter, now time.Time) OverspendingModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Category", Width: 20},
			{Title: "Spent", Width: 12},
			{Title: "Budget", Width: 12},
			{Title: "Over", Width: 12},
		}),
		table.WithHeight(12),
	)

	m := OverspendingModel{
		reports: reports,
		period:  insights.Month(now),
		table:   t,
	}
	m.reload()

	return m
}

func (m OverspendingModel) Title() string { return "Overspending" }

func (m OverspendingModel) ShortHelp() string {
	return "←/→: month"
}

func (m OverspendingModel) Update(msg tea.Msg) (OverspendingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.reload()
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			m.period = m.period.Prev()
			m.reload()
		case "right", "l":
			m.period = m.period.Next()
			m.reload()
		}
	}

	return m, nil
}

func (m *OverspendingModel) reload() {
	m.report = m.reports.Overspending(m.period)

	over := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	rows := make([]table.Row, 0, len(m.report.Categories))

	for _, c := range m.report.Categories {
		budget := "-"
		if c.Category.BudgetLimit.IsPositive() {
			budget = c.Category.BudgetLimit.StringFixed(2)
		}

		excess := ""
		if c.IsOverspent() {
			excess = over.Render(c.Overspent.StringFixed(2))
		}

		rows = append(rows, table.Row{c.Category.Name, c.Spent.StringFixed(2), budget, excess})
	}

	m.table.SetRows(rows)
}

func (m OverspendingModel) View() string {
	header := fmt.Sprintf("%s | %d categories over budget",
		activeStyle(m.period.Start.Format("January 2006")), len(m.report.Overspent()))

	if len(m.report.Categories) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", "No spending this month.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)
}
