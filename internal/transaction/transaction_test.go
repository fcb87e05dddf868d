package transaction_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

func sample() transaction.Transaction {
	return transaction.Transaction{
		ID:     uuid.MustParse("6f1c1b8e-7d1a-4a53-9a2e-1f5b2c3d4e5f"),
		Amount: decimal.RequireFromString("12.50"),
		Type:   transaction.TypeExpense,
		Date:   time.Date(2023, 6, 20, 10, 0, 0, 0, time.UTC),
		Category: transaction.Category{
			ID:          uuid.MustParse("0b7e4a1c-2f3d-4e5f-8a9b-0c1d2e3f4a5b"),
			Name:        "Transport",
			BudgetLimit: decimal.NewFromInt(100),
			Icon:        "car.fill",
		},
		Note: "Taxi",
	}
}

func TestTransaction_Validate(t *testing.T) {
	type testCase struct {
		name    string
		mutate  func(tx *transaction.Transaction)
		wantErr bool
	}

	tests := []testCase{
		{
			name:   "Valid",
			mutate: func(tx *transaction.Transaction) {},
		},
		{
			name:    "MissingID",
			mutate:  func(tx *transaction.Transaction) { tx.ID = uuid.Nil },
			wantErr: true,
		},
		{
			name:    "UnknownType",
			mutate:  func(tx *transaction.Transaction) { tx.Type = "transfer" },
			wantErr: true,
		},
		{
			name:    "NegativeAmount",
			mutate:  func(tx *transaction.Transaction) { tx.Amount = decimal.NewFromInt(-1) },
			wantErr: true,
		},
		{
			name:    "NegativeBudget",
			mutate:  func(tx *transaction.Transaction) { tx.Category.BudgetLimit = decimal.NewFromInt(-5) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := sample()
			tt.mutate(&tx)

			err := tx.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, transaction.ErrInvalid)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestTransaction_ContentHash(t *testing.T) {
	base := sample()

	baseHash, err := base.ContentHash()
	require.NoError(t, err)

	t.Run("SameContent", func(t *testing.T) {
		other := sample()
		other.Amount = decimal.RequireFromString("12.5")

		h, err := other.ContentHash()
		require.NoError(t, err)
		assert.Equal(t, baseHash, h)
		assert.True(t, base.Equal(other))
	})

	t.Run("NoteChanged", func(t *testing.T) {
		other := sample()
		other.Note = "Bus"

		h, err := other.ContentHash()
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h)
		assert.False(t, base.Equal(other))
	})

	t.Run("CategoryChanged", func(t *testing.T) {
		other := sample()
		other.Category.BudgetLimit = decimal.NewFromInt(150)

		h, err := other.ContentHash()
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h)
	})
}

func TestTransaction_Signed(t *testing.T) {
	tx := sample()
	assert.True(t, tx.Signed().Equal(decimal.RequireFromString("-12.50")))

	tx.Type = transaction.TypeIncome
	assert.True(t, tx.Signed().Equal(decimal.RequireFromString("12.50")))
}
