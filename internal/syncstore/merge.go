package syncstore

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

// MergeStats counts what a merge did to the local records.
type MergeStats struct {
	Inserted  int
	Updated   int
	Deleted   int
	Unchanged int
}

func (s MergeStats) Changed() bool {
	return s.Inserted+s.Updated+s.Deleted > 0
}

// Merge reconciles a remote batch with the current snapshot and returns the
// resulting record set. The remote side always wins on conflicting content.
//
// A full batch is authoritative: local records it does not mention are dropped.
// An incremental batch only inserts and replaces; removals must be explicit in
// Batch.Deleted. Batches with invalid records, duplicate ids, or ids that are both
// upserted and deleted are rejected with ErrMalformed and nothing is merged.
func Merge(current Snapshot, batch Batch) ([]transaction.Transaction, MergeStats, error) {
	var stats MergeStats

	incoming := make(map[uuid.UUID]transaction.Transaction, len(batch.Records))

	for _, r := range batch.Records {
		if err := r.Validate(); err != nil {
			return nil, stats, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		if _, dup := incoming[r.ID]; dup {
			return nil, stats, fmt.Errorf("%w: duplicate transaction id %s", ErrMalformed, r.ID)
		}

		incoming[r.ID] = r
	}

	tombstones := make(map[uuid.UUID]struct{}, len(batch.Deleted))

	if !batch.IsFull {
		for _, id := range batch.Deleted {
			if _, upserted := incoming[id]; upserted {
				return nil, stats, fmt.Errorf("%w: transaction %s both updated and deleted", ErrMalformed, id)
			}

			tombstones[id] = struct{}{}
		}
	}

	merged := make([]transaction.Transaction, 0, max(current.Len(), len(batch.Records)))
	seen := make(map[uuid.UUID]struct{}, len(incoming))

	for _, local := range current.records {
		remote, ok := incoming[local.ID]
		if !ok {
			_, deleted := tombstones[local.ID]
			if batch.IsFull || deleted {
				stats.Deleted++
				continue
			}

			merged = append(merged, local)

			continue
		}

		seen[local.ID] = struct{}{}

		same, err := sameContent(local, remote)
		if err != nil {
			return nil, stats, err
		}

		if same {
			merged = append(merged, local)
			stats.Unchanged++

			continue
		}

		merged = append(merged, remote)
		stats.Updated++
	}

	for _, r := range batch.Records {
		if _, ok := seen[r.ID]; ok {
			continue
		}

		merged = append(merged, r)
		stats.Inserted++
	}

	return merged, stats, nil
}

func sameContent(a, b transaction.Transaction) (bool, error) {
	ha, err := a.ContentHash()
	if err != nil {
		return false, err
	}

	hb, err := b.ContentHash()
	if err != nil {
		return false, err
	}

	return ha == hb, nil
}
