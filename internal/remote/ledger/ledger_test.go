package ledger

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}

	if len(dest) != len(f.values) {
		return errors.New("column count mismatch")
	}

	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = f.values[i].(uuid.UUID)
		case *decimal.Decimal:
			*p = f.values[i].(decimal.Decimal)
		case *string:
			*p = f.values[i].(string)
		case *time.Time:
			*p = f.values[i].(time.Time)
		case *sql.NullString:
			*p = f.values[i].(sql.NullString)
		case *sql.NullTime:
			*p = f.values[i].(sql.NullTime)
		default:
			return errors.New("unsupported destination")
		}
	}

	return nil
}

func TestScanRow(t *testing.T) {
	txID := uuid.New()
	catID := uuid.New()
	date := time.Date(2023, 6, 20, 9, 30, 0, 0, time.FixedZone("WEST", 3600))
	updated := time.Date(2023, 6, 20, 10, 0, 0, 0, time.UTC)
	deleted := time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name          string
		row           fakeRow
		wantNote      string
		wantDeleted   bool
		wantChangedAt time.Time
		wantErr       bool
	}

	values := func(note sql.NullString, deletedAt sql.NullTime) []any {
		return []any{
			txID, decimal.RequireFromString("12.34"), "expense", date, note,
			catID, "Groceries", decimal.RequireFromString("300"), sql.NullString{String: "cart", Valid: true},
			updated, deletedAt,
		}
	}

	tests := []testCase{
		{
			name:          "LiveRow",
			row:           fakeRow{values: values(sql.NullString{String: "weekly shop", Valid: true}, sql.NullTime{})},
			wantNote:      "weekly shop",
			wantChangedAt: updated,
		},
		{
			name:          "SoftDeletedNullNote",
			row:           fakeRow{values: values(sql.NullString{}, sql.NullTime{Time: deleted, Valid: true})},
			wantDeleted:   true,
			wantChangedAt: deleted,
		},
		{
			name:    "ScanError",
			row:     fakeRow{err: errors.New("cannot scan numeric")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := scanRow(tt.row)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, txID, r.tx.ID)
			assert.Equal(t, transaction.TypeExpense, r.tx.Type)
			assert.Equal(t, time.UTC, r.tx.Date.Location())
			assert.True(t, date.Equal(r.tx.Date))
			assert.Equal(t, tt.wantNote, r.tx.Note)
			assert.Equal(t, "cart", r.tx.Category.Icon)
			assert.Equal(t, tt.wantDeleted, r.deletedAt.Valid)
			assert.True(t, tt.wantChangedAt.Equal(r.changedAt()), "changed at %s", r.changedAt())
			assert.NoError(t, r.tx.Validate())
		})
	}
}

func TestBuildQuery(t *testing.T) {
	synced := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)
	mark := time.Date(2023, 6, 19, 23, 59, 0, 0, time.UTC)

	type testCase struct {
		name        string
		since       *syncstore.Cursor
		wantArgs    int
		wantContain string
	}

	tests := []testCase{
		{name: "Full", since: nil, wantArgs: 0, wantContain: "t.deleted_at IS NULL"},
		{name: "ZeroCursor", since: &syncstore.Cursor{}, wantArgs: 0, wantContain: "t.deleted_at IS NULL"},
		{name: "NoWatermark", since: &syncstore.Cursor{Version: 3, SyncedAt: synced}, wantArgs: 0, wantContain: "t.deleted_at IS NULL"},
		{name: "Incremental", since: &syncstore.Cursor{Version: 3, SyncedAt: synced, Watermark: mark}, wantArgs: 1, wantContain: "t.updated_at >= $1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildQuery(tt.since)
			if tt.wantArgs > 0 {
				assert.Equal(t, tt.since.Watermark, args[0])
			}

			assert.Len(t, args, tt.wantArgs)
			assert.Contains(t, query, tt.wantContain)
			assert.Contains(t, query, "ORDER BY t.date ASC")
		})
	}
}
