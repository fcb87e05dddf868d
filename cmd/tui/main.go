package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/coinbag/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/coinbag/internal/backend"
	"github.com/MrJamesThe3rd/coinbag/internal/config"
	"github.com/MrJamesThe3rd/coinbag/internal/insights"
	"github.com/MrJamesThe3rd/coinbag/internal/logging"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

var errDeclined = errors.New("cache left untouched")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// stdout belongs to the terminal UI
	logFile, err := tea.LogToFile("coinbag-tui.log", "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := logging.New(logFile, cfg.SlogLevel(), cfg.App.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		if errors.Is(err, errDeclined) {
			fmt.Println("Cache is unreadable and was left untouched. Exiting.")
			return
		}

		logger.Error("failed to run TUI", "error", err)
		fmt.Fprintln(os.Stderr, "coinbag:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	res, err := backend.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("failed to release backend", "error", err)
		}
	}()

	store := syncstore.New(res.Remote, res.Cache, syncstore.WithLogger(logger))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := store.Close(closeCtx); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}()

	if err := store.Load(ctx); err != nil {
		if !errors.Is(err, syncstore.ErrCacheCorrupt) {
			return fmt.Errorf("load cache: %w", err)
		}

		if err := confirmDiscard(ctx, store, err); err != nil {
			return err
		}
	}

	reports := insights.NewService(store, cfg.Insights.CacheSize, cfg.Insights.CacheTTL)

	p := tea.NewProgram(view.NewAppModel(store, reports), tea.WithAltScreen())

	sub, err := store.Subscribe(func(s syncstore.Snapshot) {
		p.Send(view.SnapshotMsg{Snapshot: s})
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	return nil
}

func confirmDiscard(ctx context.Context, store *syncstore.Store, cause error) error {
	var discard bool

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("The local cache could not be read").
			Description(cause.Error() + "\n\nDiscard it and fetch everything again?").
			Affirmative("Discard").
			Negative("Quit").
			Value(&discard),
	))

	if err := form.Run(); err != nil {
		return fmt.Errorf("confirm discard: %w", err)
	}

	if !discard {
		return errDeclined
	}

	if err := store.Discard(ctx); err != nil {
		return fmt.Errorf("discard cache: %w", err)
	}

	return nil
}
