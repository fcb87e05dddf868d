// Package syncstore keeps the local, versioned view of the user's transactions in
// step with a remote source.
//
// A Store owns the current Snapshot. Reads are lock-free and never trigger a fetch.
// Refreshes are single-flight: concurrent callers share one RemoteSource fetch and
// receive the same outcome. Every committed Snapshot is persisted to a LocalCache
// and pushed to subscribed observers.
package syncstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

//go:generate mockgen -source=syncstore.go -destination=syncstore_mock.go -package=syncstore

// RemoteSource fetches transactions from the backend. A nil cursor asks for the
// complete record set. Timeouts are the source's responsibility.
type RemoteSource interface {
	Fetch(ctx context.Context, since *Cursor) (Batch, error)
}

// LocalCache persists the last known-good snapshot across restarts.
// Load returns ErrCacheMiss when nothing was saved yet and wraps ErrCorrupt when
// the stored data cannot be decoded.
type LocalCache interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Observer is called with every committed snapshot. It runs on the committing
// goroutine with the commit lock held, so it must return quickly and must not
// call back into Load, Discard, Refresh or Close: Refresh and Close wait on the
// very refresh that is running the observer.
type Observer func(Snapshot)

// Batch is a remote response. When IsFull is false the batch only carries changes:
// records absent from it are left alone and only Deleted ids are removed.
//
// Watermark is the latest change the batch reflects, on the source's clock. It comes
// back as Cursor.Watermark on the next incremental fetch. Sources without one leave
// it zero and the store uses the time the fetch started.
type Batch struct {
	Records   []transaction.Transaction
	Deleted   []uuid.UUID
	IsFull    bool
	Watermark time.Time
}

// Cursor tells a source what the local side already has. Sources filter on
// Watermark; SyncedAt is the local commit time and is informational.
type Cursor struct {
	Version   uint64
	SyncedAt  time.Time
	Watermark time.Time
}

// Mode selects whether a refresh asks for everything or only for changes.
type Mode int

const (
	ModeFull Mode = iota
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncremental:
		return "incremental"
	}

	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts "full" or "incremental". An empty string means full.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "full":
		return ModeFull, nil
	case "incremental":
		return ModeIncremental, nil
	}

	return 0, fmt.Errorf("unknown refresh mode %q", s)
}

// Result is what a refresh hands back. Stale is set when the refresh failed and
// Snapshot is the last good one.
type Result struct {
	Snapshot Snapshot
	Stale    bool
}
