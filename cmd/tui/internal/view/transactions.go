package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

type TransactionsModel struct {
	CommonModel

	table     table.Model
	snap      syncstore.Snapshot
	txs       []transaction.Transaction
	timeframe Timeframe
	now       func() time.Time
}

func NewTransactionsModel() TransactionsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 18},
		{Title: "Note", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return TransactionsModel{
		table:     t,
		timeframe: TimeframeThisMonth,
		now:       time.Now,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	return "d: date filter | ↑/↓: move"
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (TransactionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "d" {
			m.timeframe = m.timeframe.Next()
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) View() string {
	header := fmt.Sprintf("Filter: [d] Date: %s | %d of %d transactions",
		activeStyle(m.timeframe.String()), len(m.txs), m.snap.Len())

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *TransactionsModel) refreshTable() {
	period, bounded := m.timeframe.Period(m.now())

	var txs []transaction.Transaction

	// newest first
	records := m.snap.Records()
	for i := len(records) - 1; i >= 0; i-- {
		if bounded && !period.Contains(records[i].Date) {
			continue
		}

		txs = append(txs, records[i])
	}

	m.txs = txs

	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			FormatAmount(tx),
			tx.Category.Name,
			tx.Note,
		})
	}

	m.table.SetRows(rows)
}
