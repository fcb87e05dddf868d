package syncstore_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

func TestNewSnapshot(t *testing.T) {
	t.Run("OrdersByDate", func(t *testing.T) {
		snap := snapshotOf(t, 3, recC, recA, recB)

		assert.Equal(t, ids([]transaction.Transaction{recA, recB, recC}), ids(snap.Records()))
		assert.Equal(t, uint64(3), snap.Version)
		assert.Equal(t, 3, snap.Len())
	})

	t.Run("RejectsDuplicates", func(t *testing.T) {
		_, err := syncstore.NewSnapshot(1, time.Now(), []transaction.Transaction{recB, recBUpdated})
		assert.Error(t, err)
	})

	t.Run("RecordsAreCopies", func(t *testing.T) {
		snap := snapshotOf(t, 1, recA)

		records := snap.Records()
		records[0].Note = "mutated"

		got, ok := snap.Get(recA.ID)
		require.True(t, ok)
		assert.Equal(t, "A", got.Note)
	})

	t.Run("ZeroValueIsEmpty", func(t *testing.T) {
		var snap syncstore.Snapshot

		assert.True(t, snap.IsEmpty())
		assert.Empty(t, snap.Records())

		_, ok := snap.Get(uuid.New())
		assert.False(t, ok)
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    syncstore.Mode
		wantErr bool
	}{
		{in: "", want: syncstore.ModeFull},
		{in: "full", want: syncstore.ModeFull},
		{in: "incremental", want: syncstore.ModeIncremental},
		{in: "partial", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := syncstore.ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
