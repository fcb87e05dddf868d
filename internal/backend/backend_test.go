package backend_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/backend"
	"github.com/MrJamesThe3rd/coinbag/internal/cache/file"
	"github.com/MrJamesThe3rd/coinbag/internal/cache/sqlite"
	"github.com/MrJamesThe3rd/coinbag/internal/config"
	"github.com/MrJamesThe3rd/coinbag/internal/remote/bankapi"
	"github.com/MrJamesThe3rd/coinbag/internal/remote/statement"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

func TestBuild(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "conta.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Data mov.;Descrição;Montante\n30-01-2026;COFFEE;-2,50\n"), 0o644))

	type testCase struct {
		name          string
		configure     func(cfg *config.Config)
		wantRemote    any
		wantCache     any
		wantPortfolio bool
		wantErr       bool
	}

	tests := []testCase{
		{
			name: "StatementWithSQLite",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteStatement
				cfg.Statement.Path = csvPath
				cfg.Cache.Kind = config.CacheSQLite
				cfg.Cache.Path = filepath.Join(dir, "sqlite", "coinbag.db")
			},
			wantRemote: &statement.Source{},
			wantCache:  &sqlite.Cache{},
		},
		{
			name: "BankAPIWithFile",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteBankAPI
				cfg.BankAPI.URL = "https://bank.example/api"
				cfg.Cache.Kind = config.CacheFile
				cfg.Cache.Path = filepath.Join(dir, "file", "snapshot.json")
			},
			wantRemote: &bankapi.Source{},
			wantCache:  &file.Cache{},
		},
		{
			name: "StatementWithPortfolio",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteStatement
				cfg.Statement.Path = csvPath
				cfg.Portfolio.Enabled = true
				cfg.BankAPI.URL = "https://bank.example/api"
				cfg.Cache.Kind = config.CacheFile
				cfg.Cache.Path = filepath.Join(dir, "portfolio", "snapshot.json")
			},
			wantRemote:    &statement.Source{},
			wantCache:     &file.Cache{},
			wantPortfolio: true,
		},
		{
			name: "PortfolioWithBadURL",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteStatement
				cfg.Statement.Path = csvPath
				cfg.Portfolio.Enabled = true
				cfg.BankAPI.URL = "ftp://bank.example"
				cfg.Cache.Kind = config.CacheFile
				cfg.Cache.Path = filepath.Join(dir, "y.json")
			},
			wantErr: true,
		},
		{
			name: "MissingRules",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteStatement
				cfg.Statement.Path = csvPath
				cfg.Statement.RulesPath = filepath.Join(dir, "missing.json")
				cfg.Cache.Kind = config.CacheFile
				cfg.Cache.Path = filepath.Join(dir, "x.json")
			},
			wantErr: true,
		},
		{
			name: "UnknownCache",
			configure: func(cfg *config.Config) {
				cfg.Remote.Kind = config.RemoteStatement
				cfg.Statement.Path = csvPath
				cfg.Cache.Kind = "redis"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			tt.configure(&cfg)

			res, err := backend.Build(context.Background(), &cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			defer res.Cleanup()

			assert.IsType(t, tt.wantRemote, res.Remote)
			assert.IsType(t, tt.wantCache, res.Cache)
			assert.Equal(t, tt.wantPortfolio, res.Portfolio != nil)
		})
	}
}

func TestBuild_StatementEndToEnd(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "conta.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Data mov.;Descrição;Montante\n30-01-2026;COFFEE;-2,50\n31-01-2026;SALARY;1.500,00\n"), 0o644))

	var cfg config.Config
	cfg.Remote.Kind = config.RemoteStatement
	cfg.Statement.Path = csvPath
	cfg.Cache.Kind = config.CacheSQLite
	cfg.Cache.Path = filepath.Join(dir, "coinbag.db")

	ctx := context.Background()

	res, err := backend.Build(ctx, &cfg, nil)
	require.NoError(t, err)
	defer res.Cleanup()

	store := syncstore.New(res.Remote, res.Cache)
	require.NoError(t, store.Load(ctx))

	result, err := store.Refresh(ctx, syncstore.ModeIncremental)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Snapshot.Len())
	require.NoError(t, store.Close(ctx))

	restarted := syncstore.New(res.Remote, res.Cache)
	require.NoError(t, restarted.Load(ctx))

	assert.Equal(t, uint64(1), restarted.CurrentSnapshot().Version)
	assert.Equal(t, 2, restarted.CurrentSnapshot().Len())
}
