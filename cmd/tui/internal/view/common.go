package view

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/coinbag/internal/insights"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

// Store is the part of *syncstore.Store the screens use.
type Store interface {
	CurrentSnapshot() syncstore.Snapshot
	Refresh(ctx context.Context, mode syncstore.Mode) (syncstore.Result, error)
	Status() syncstore.Status
}

// Reporter is satisfied by *insights.Service.
type Reporter interface {
	Overspending(period insights.Period) insights.OverspendingReport
}

type CommonModel struct {
	Width  int
	Height int
}

// SnapshotMsg carries a committed snapshot from the store observer.
type SnapshotMsg struct {
	Snapshot syncstore.Snapshot
}

type refreshDoneMsg struct {
	result syncstore.Result
	err    error
}

func refreshCmd(store Store, mode syncstore.Mode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RefreshCtx()
		defer cancel()

		res, err := store.Refresh(ctx, mode)

		return refreshDoneMsg{result: res, err: err}
	}
}
