package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "data", "coinbag.db"))
	require.NoError(t, err)

	t.Cleanup(func() { c.Close() })

	return c
}

func snapshot(t *testing.T, version uint64, n int) syncstore.Snapshot {
	t.Helper()

	cat := transaction.Category{
		ID:          uuid.New(),
		Name:        "Home",
		BudgetLimit: decimal.RequireFromString("450.50"),
		Icon:        "house.fill",
	}

	records := make([]transaction.Transaction, n)
	for i := range records {
		records[i] = transaction.Transaction{
			ID:       uuid.New(),
			Amount:   decimal.New(int64(1000+i), -2),
			Type:     transaction.TypeExpense,
			Date:     time.Date(2023, 6, i+1, 10, 0, 0, 123, time.UTC),
			Category: cat,
			Note:     "rent",
		}
	}

	snap, err := syncstore.NewSnapshot(version, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), records)
	require.NoError(t, err)

	return snap
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	_, err := c.Load(ctx)
	assert.ErrorIs(t, err, syncstore.ErrCacheMiss)

	require.NoError(t, c.Save(ctx, snapshot(t, 1, 5)))

	want := snapshot(t, 2, 3)
	want.Watermark = time.Date(2023, 6, 29, 23, 58, 0, 0, time.UTC)
	require.NoError(t, c.Save(ctx, want))

	got, err := c.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), got.Version)
	assert.True(t, want.SyncedAt.Equal(got.SyncedAt))
	assert.True(t, want.Watermark.Equal(got.Watermark))
	require.Equal(t, 3, got.Len())

	for i, r := range want.Records() {
		assert.True(t, r.Equal(got.Records()[i]), "record %d differs", i)
	}
}

func TestCache_EmptySnapshot(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, syncstore.Snapshot{}))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Zero(t, got.Version)
	assert.True(t, got.Watermark.IsZero())
}

func TestCache_Corrupt(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "BadAmount", query: `UPDATE snapshot_records SET amount = 'twelve'`},
		{name: "BadID", query: `UPDATE snapshot_records SET id = 'nope' WHERE position = 0`},
		{name: "BadDate", query: `UPDATE snapshot_records SET date = '20/06/2023'`},
		{name: "BadType", query: `UPDATE snapshot_records SET type = 'transfer'`},
		{name: "BadMeta", query: `UPDATE snapshot_meta SET synced_at = 'yesterday'`},
		{name: "BadWatermark", query: `UPDATE snapshot_meta SET watermark = 'soon'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := openTemp(t)
			ctx := context.Background()

			require.NoError(t, c.Save(ctx, snapshot(t, 1, 2)))

			_, err := c.db.ExecContext(ctx, tt.query)
			require.NoError(t, err)

			_, err = c.Load(ctx)
			assert.ErrorIs(t, err, syncstore.ErrCorrupt)
		})
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinbag.db")

	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
