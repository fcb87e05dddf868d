package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

type tab int

const (
	tabTransactions tab = iota
	tabOverspending
)

// AppModel is the root screen: a tab bar, the active tab and a sync status line.
type AppModel struct {
	CommonModel

	store      Store
	current    tab
	txView     TransactionsModel
	overView   OverspendingModel
	refreshing bool
	stale      bool
	lastErr    error
}

func NewAppModel(store Store, reports Reporter) AppModel {
	m := AppModel{
		store:    store,
		txView:   NewTransactionsModel(),
		overView: NewOverspendingModel(reports, time.Now()),
	}

	m.txView, _ = m.txView.Update(SnapshotMsg{Snapshot: store.CurrentSnapshot()})

	return m
}

func (m AppModel) Init() tea.Cmd {
	return m.startRefresh(syncstore.ModeIncremental)
}

func (m *AppModel) startRefresh(mode syncstore.Mode) tea.Cmd {
	m.refreshing = true
	return refreshCmd(m.store, mode)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.current = (m.current + 1) % 2
			return m, nil
		case "r":
			if m.refreshing {
				return m, nil
			}

			return m, m.startRefresh(syncstore.ModeIncremental)
		case "R":
			if m.refreshing {
				return m, nil
			}

			return m, m.startRefresh(syncstore.ModeFull)
		}

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.txView, cmd = m.txView.Update(msg)

		return m, cmd

	case refreshDoneMsg:
		m.refreshing = false
		m.stale = msg.result.Stale
		m.lastErr = msg.err

		return m, nil

	case SnapshotMsg:
		m.txView, _ = m.txView.Update(msg)
		m.overView, _ = m.overView.Update(msg)

		return m, nil
	}

	switch m.current {
	case tabTransactions:
		m.txView, cmd = m.txView.Update(msg)
	case tabOverspending:
		m.overView, cmd = m.overView.Update(msg)
	}

	return m, cmd
}

func (m AppModel) View() string {
	tabs := []string{m.txView.Title(), m.overView.Title()}
	help := m.txView.ShortHelp()

	if m.current == tabOverspending {
		help = m.overView.ShortHelp()
	}

	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		style := lipgloss.NewStyle().Padding(0, 2)
		if tab(i) == m.current {
			style = style.Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
		}

		rendered[i] = style.Render(t)
	}

	body := m.txView.View()
	if m.current == tabOverspending {
		body = m.overView.View()
	}

	footer := lipgloss.NewStyle().Faint(true).Render(
		help + " | tab: switch | r: refresh | R: full refresh | q: quit")

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		m.statusLine(),
		"",
		body,
		"",
		footer,
	))
}

func (m AppModel) statusLine() string {
	st := m.store.Status()

	var b strings.Builder

	fmt.Fprintf(&b, "v%d", st.Version)

	if !st.SyncedAt.IsZero() {
		fmt.Fprintf(&b, " · synced %s", st.SyncedAt.Local().Format("2006-01-02 15:04"))
	} else {
		b.WriteString(" · never synced")
	}

	switch {
	case m.refreshing:
		b.WriteString(" · refreshing…")
	case m.lastErr != nil:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(
			b.String() + " · " + describeError(m.lastErr, m.stale))
	}

	return lipgloss.NewStyle().Faint(true).Render(b.String())
}

func describeError(err error, stale bool) string {
	suffix := ""
	if stale {
		suffix = " (showing cached data)"
	}

	switch {
	case errors.Is(err, syncstore.ErrTransient):
		return "offline, will retry" + suffix
	case errors.Is(err, syncstore.ErrProtocol):
		return "server sent bad data" + suffix
	case errors.Is(err, syncstore.ErrStoreTornDown):
		return "store closed"
	}

	return err.Error() + suffix
}
