package syncstore_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

var groceries = transaction.Category{
	ID:          uuid.MustParse("9a3f0c2e-5b1d-4c6e-8f7a-1b2c3d4e5f60"),
	Name:        "Groceries",
	BudgetLimit: decimal.NewFromInt(300),
	Icon:        "cart.fill",
}

func record(id, amount, note string, day int) transaction.Transaction {
	return transaction.Transaction{
		ID:       uuid.MustParse(id),
		Amount:   decimal.RequireFromString(amount),
		Type:     transaction.TypeExpense,
		Date:     time.Date(2023, 6, day, 12, 0, 0, 0, time.UTC),
		Category: groceries,
		Note:     note,
	}
}

const (
	idA = "00000000-0000-0000-0000-00000000000a"
	idB = "00000000-0000-0000-0000-00000000000b"
	idC = "00000000-0000-0000-0000-00000000000c"
)

var (
	recA        = record(idA, "10.00", "A", 1)
	recB        = record(idB, "20.00", "B", 2)
	recBUpdated = record(idB, "25.00", "B updated", 2)
	recC        = record(idC, "30.00", "C", 3)
)

func snapshotOf(t *testing.T, version uint64, records ...transaction.Transaction) syncstore.Snapshot {
	t.Helper()

	snap, err := syncstore.NewSnapshot(version, time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC), records)
	require.NoError(t, err)

	return snap
}

func ids(records []transaction.Transaction) []uuid.UUID {
	out := make([]uuid.UUID, len(records))
	for i, r := range records {
		out[i] = r.ID
	}

	return out
}
