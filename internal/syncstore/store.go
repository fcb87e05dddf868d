package syncstore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the refresh state of a Store.
type State int

const (
	StateIdle State = iota
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

// Status is a point-in-time view of the store for diagnostics.
type Status struct {
	State         State
	Version       uint64
	SyncedAt      time.Time
	Records       int
	LastError     error
	LastFailureAt time.Time
	LastSaveError error
	Closed        bool
}

// single key: every refresh joins the same flight
const refreshKey = "refresh"

type observerEntry struct {
	id uint64
	fn Observer
}

// Store is the single owner of the current Snapshot.
type Store struct {
	remote RemoteSource
	cache  LocalCache
	logger *slog.Logger
	now    func() time.Time

	current atomic.Pointer[Snapshot]
	flight  singleflight.Group

	// commitMu serializes snapshot swaps together with their notifications so
	// observers see commits in version order.
	commitMu sync.Mutex

	mu            sync.Mutex
	state         State
	lastErr       error
	lastFailureAt time.Time
	lastSaveErr   error
	observers     []observerEntry
	nextObserver  uint64
	closed        bool
}

type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock replaces time.Now for stamping snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store holding the empty initial snapshot.
func New(remote RemoteSource, cache LocalCache, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		cache:  cache,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "syncstore")
	s.current.Store(&Snapshot{})

	return s
}

// CurrentSnapshot returns the latest committed snapshot without blocking.
func (s *Store) CurrentSnapshot() Snapshot {
	return *s.current.Load()
}

// Load restores the last known-good snapshot from the cache. A cache miss leaves
// the store empty. Unreadable cache data is reported as KindCacheCorrupt and the
// store stays empty; the caller may Discard the cache and refresh from scratch.
func (s *Store) Load(ctx context.Context) error {
	if s.isClosed() {
		return tornDown("load")
	}

	snap, err := s.cache.Load(ctx)
	if errors.Is(err, ErrCacheMiss) {
		s.logger.InfoContext(ctx, "cache empty, starting from empty snapshot")
		return nil
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load cache", "error", err)
		return &SyncError{Kind: KindCacheCorrupt, Op: "load", Err: err}
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	// A refresh that already committed is newer than anything on disk.
	if snap.Version <= s.CurrentSnapshot().Version {
		s.logger.InfoContext(ctx, "ignoring cached snapshot older than current",
			"cached_version", snap.Version)

		return nil
	}

	s.swapAndNotify(snap)

	s.logger.InfoContext(ctx, "loaded snapshot from cache",
		"version", snap.Version,
		"records", snap.Len())

	return nil
}

// Discard overwrites the cached snapshot with the current in-memory one. Used
// after Load reported a corrupt cache.
func (s *Store) Discard(ctx context.Context) error {
	if s.isClosed() {
		return tornDown("discard")
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	snap := s.CurrentSnapshot()
	if err := s.cache.Save(ctx, snap); err != nil {
		return &SyncError{Kind: KindCacheCorrupt, Op: "discard", Err: err}
	}

	s.logger.WarnContext(ctx, "discarded cached snapshot", "version", snap.Version)

	return nil
}

// Refresh fetches from the remote source and commits the merged snapshot.
//
// Concurrent calls share a single fetch and all observe the same result. On
// transient or protocol failures the last good snapshot is returned with Stale set
// alongside a *SyncError. Cancelling ctx only stops this caller from waiting; the
// refresh itself runs to completion and commits.
func (s *Store) Refresh(ctx context.Context, mode Mode) (Result, error) {
	if s.isClosed() {
		return s.staleResult(), tornDown("refresh")
	}

	detached := context.WithoutCancel(ctx)

	ch := s.flight.DoChan(refreshKey, func() (any, error) {
		return s.refresh(detached, mode)
	})

	select {
	case res := <-ch:
		r, ok := res.Val.(Result)
		if !ok {
			r = s.staleResult()
		}

		if res.Shared {
			s.logger.DebugContext(ctx, "joined in-flight refresh")
		}

		return r, res.Err
	case <-ctx.Done():
		return s.staleResult(), ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context, mode Mode) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.staleResult(), tornDown("refresh")
	}

	s.state = StateRefreshing
	s.mu.Unlock()

	prev := s.CurrentSnapshot()

	var since *Cursor
	if mode == ModeIncremental {
		since = prev.Cursor()
	}

	// taken before the fetch: anything changed after this may be missing from the batch
	started := s.now()

	s.logger.DebugContext(ctx, "refreshing from remote", "mode", mode, "version", prev.Version)

	batch, err := s.remote.Fetch(ctx, since)
	if err != nil {
		return Result{Snapshot: prev, Stale: true}, s.fail(ctx, classifyFetch(err), err)
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	// Merge against whatever is committed now, which may be newer than prev if a
	// cache load landed while the fetch was outstanding.
	base := s.CurrentSnapshot()

	records, stats, err := Merge(base, batch)
	if err != nil {
		return Result{Snapshot: base, Stale: true}, s.fail(ctx, KindProtocol, err)
	}

	next, err := NewSnapshot(base.Version+1, s.now(), records)
	if err != nil {
		return Result{Snapshot: base, Stale: true}, s.fail(ctx, KindProtocol, err)
	}

	next.Watermark = nextWatermark(base, batch, started)

	s.commitLocked(ctx, next)

	s.logger.InfoContext(ctx, "refresh committed",
		"mode", mode,
		"full", batch.IsFull,
		"version", next.Version,
		"records", next.Len(),
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"duration", s.now().Sub(started))

	return Result{Snapshot: next}, nil
}

// nextWatermark picks the position the next incremental fetch resumes from. Without
// a source watermark it is the fetch start, so changes landing mid-fetch are asked
// for again. An incremental batch never moves it backwards.
func nextWatermark(base Snapshot, batch Batch, started time.Time) time.Time {
	w := batch.Watermark
	if w.IsZero() {
		w = started
	}

	if !batch.IsFull && base.Watermark.After(w) {
		return base.Watermark
	}

	return w
}

// commitLocked persists and publishes next. commitMu must be held.
func (s *Store) commitLocked(ctx context.Context, next Snapshot) {
	saveErr := s.cache.Save(ctx, next)
	if saveErr != nil {
		s.logger.WarnContext(ctx, "failed to save snapshot to cache",
			"version", next.Version,
			"error", saveErr)
	}

	s.mu.Lock()
	s.state = StateIdle
	s.lastSaveErr = saveErr
	s.mu.Unlock()

	s.swapAndNotify(next)
}

// swapAndNotify must be called with commitMu held.
func (s *Store) swapAndNotify(next Snapshot) {
	s.current.Store(&next)

	s.mu.Lock()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o.fn(next)
	}
}

func (s *Store) fail(ctx context.Context, kind Kind, cause error) error {
	err := &SyncError{Kind: kind, Op: "refresh", Err: cause}

	s.mu.Lock()
	s.state = StateFailed
	s.lastErr = err
	s.lastFailureAt = s.now()
	s.mu.Unlock()

	s.logger.WarnContext(ctx, "refresh failed",
		"kind", kind,
		"retryable", kind == KindTransient,
		"error", cause)

	// The failure is recorded; the store is usable again.
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	return err
}

func (s *Store) staleResult() Result {
	return Result{Snapshot: s.CurrentSnapshot(), Stale: true}
}

// Subscribe registers an observer for committed snapshots.
func (s *Store) Subscribe(o Observer) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, tornDown("subscribe")
	}

	s.nextObserver++
	id := s.nextObserver
	s.observers = append(s.observers, observerEntry{id: id, fn: o})

	return &Subscription{cancel: func() { s.unsubscribe(id) }}, nil
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = slices.DeleteFunc(s.observers, func(e observerEntry) bool {
		return e.id == id
	})
}

// Status reports the current state, snapshot metadata and last recorded errors.
func (s *Store) Status() Status {
	snap := s.CurrentSnapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		State:         s.state,
		Version:       snap.Version,
		SyncedAt:      snap.SyncedAt,
		Records:       snap.Len(),
		LastError:     s.lastErr,
		LastFailureAt: s.lastFailureAt,
		LastSaveError: s.lastSaveErr,
		Closed:        s.closed,
	}
}

// Close tears the store down. Further refreshes and subscriptions fail with
// KindStoreTornDown. Close waits for an in-flight refresh to commit.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	// Joins the in-flight refresh if there is one; otherwise returns at once.
	ch := s.flight.DoChan(refreshKey, func() (any, error) {
		return s.staleResult(), tornDown("refresh")
	})

	select {
	case <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.observers = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "store closed", "version", s.CurrentSnapshot().Version)

	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Subscription is returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. Calling it more than once is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub == nil {
		return
	}

	sub.once.Do(sub.cancel)
}
