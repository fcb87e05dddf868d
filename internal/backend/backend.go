// Package backend builds the remote source and local cache selected by config.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/coinbag/internal/cache/file"
	"github.com/MrJamesThe3rd/coinbag/internal/cache/sqlite"
	"github.com/MrJamesThe3rd/coinbag/internal/config"
	"github.com/MrJamesThe3rd/coinbag/internal/database"
	"github.com/MrJamesThe3rd/coinbag/internal/logging"
	"github.com/MrJamesThe3rd/coinbag/internal/portfolio"
	"github.com/MrJamesThe3rd/coinbag/internal/remote/bankapi"
	"github.com/MrJamesThe3rd/coinbag/internal/remote/ledger"
	"github.com/MrJamesThe3rd/coinbag/internal/remote/statement"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

type Result struct {
	Remote syncstore.RemoteSource
	Cache  syncstore.LocalCache
	// Portfolio is nil unless PORTFOLIO_ENABLED is set.
	Portfolio portfolio.Source
	// Cleanup releases connections opened for Remote and Cache.
	Cleanup func() error
}

func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	logger = logging.Component(logger, "backend")

	var closers []func() error

	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}

		return errors.Join(errs...)
	}

	remote, closeRemote, err := buildRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if closeRemote != nil {
		closers = append(closers, closeRemote)
	}

	cache, closeCache, err := buildCache(cfg)
	if err != nil {
		cleanup()
		return nil, err
	}

	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	var holdings portfolio.Source

	if cfg.Portfolio.Enabled {
		src, err := bankapi.New(cfg.BankAPI.URL, cfg.BankAPI.Token, cfg.BankAPI.Timeout)
		if err != nil {
			cleanup()
			return nil, err
		}

		holdings = src
	}

	logger.InfoContext(ctx, "initialized backend",
		"remote", cfg.Remote.Kind,
		"cache", cfg.Cache.Kind,
		"cache_path", cfg.Cache.Path,
		"portfolio", cfg.Portfolio.Enabled)

	return &Result{Remote: remote, Cache: cache, Portfolio: holdings, Cleanup: cleanup}, nil
}

func buildRemote(ctx context.Context, cfg *config.Config) (syncstore.RemoteSource, func() error, error) {
	switch cfg.Remote.Kind {
	case config.RemoteLedger:
		db, err := database.Open(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to ledger: %w", err)
		}

		return ledger.New(db), db.Close, nil
	case config.RemoteBankAPI:
		src, err := bankapi.New(cfg.BankAPI.URL, cfg.BankAPI.Token, cfg.BankAPI.Timeout)
		if err != nil {
			return nil, nil, err
		}

		return src, nil, nil
	case config.RemoteStatement:
		var rules []statement.Rule

		if cfg.Statement.RulesPath != "" {
			loaded, err := statement.LoadRules(cfg.Statement.RulesPath)
			if err != nil {
				return nil, nil, err
			}

			rules = loaded
		}

		return statement.New(cfg.Statement.Path, statement.NewCategorizer(rules)), nil, nil
	}

	return nil, nil, fmt.Errorf("unsupported remote kind: %s", cfg.Remote.Kind)
}

func buildCache(cfg *config.Config) (syncstore.LocalCache, func() error, error) {
	switch cfg.Cache.Kind {
	case config.CacheSQLite:
		c, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}

		return c, c.Close, nil
	case config.CacheFile:
		c, err := file.New(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file cache: %w", err)
		}

		return c, nil, nil
	}

	return nil, nil, fmt.Errorf("unsupported cache kind: %s", cfg.Cache.Kind)
}
