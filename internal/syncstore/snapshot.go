package syncstore

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

// Snapshot is an immutable, versioned view of all known transactions.
// The zero value is the empty initial snapshot.
type Snapshot struct {
	Version  uint64
	SyncedAt time.Time
	// Watermark is the source-side position the snapshot is current up to.
	Watermark time.Time

	records []transaction.Transaction
	index   map[uuid.UUID]int
}

// NewSnapshot builds a snapshot from records, ordering them by date and then id.
// Identifiers must be unique.
func NewSnapshot(version uint64, syncedAt time.Time, records []transaction.Transaction) (Snapshot, error) {
	sorted := slices.Clone(records)
	sortRecords(sorted)

	index := make(map[uuid.UUID]int, len(sorted))

	for i, r := range sorted {
		if _, dup := index[r.ID]; dup {
			return Snapshot{}, fmt.Errorf("duplicate transaction id %s", r.ID)
		}

		index[r.ID] = i
	}

	return Snapshot{
		Version:  version,
		SyncedAt: syncedAt,
		records:  sorted,
		index:    index,
	}, nil
}

func sortRecords(records []transaction.Transaction) {
	slices.SortFunc(records, func(a, b transaction.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}

		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// Records returns a copy of the ordered records.
func (s Snapshot) Records() []transaction.Transaction {
	return slices.Clone(s.records)
}

func (s Snapshot) Len() int {
	return len(s.records)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.records) == 0
}

// Get looks up a record by id.
func (s Snapshot) Get(id uuid.UUID) (transaction.Transaction, bool) {
	i, ok := s.index[id]
	if !ok {
		return transaction.Transaction{}, false
	}

	return s.records[i], true
}

// Cursor describes this snapshot to a remote source. The initial empty snapshot
// has no cursor, so an incremental refresh from it asks for everything.
func (s Snapshot) Cursor() *Cursor {
	if s.Version == 0 {
		return nil
	}

	return &Cursor{Version: s.Version, SyncedAt: s.SyncedAt, Watermark: s.Watermark}
}
