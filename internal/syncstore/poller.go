package syncstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// PollerConfig holds configuration for the periodic refresher.
type PollerConfig struct {
	// Interval between refreshes (default: 5m)
	Interval time.Duration

	// Mode used for periodic refreshes (default: incremental)
	Mode Mode

	// FullEvery forces a full refresh every n ticks so deletions the source never
	// reported still get reconciled. Zero disables it.
	FullEvery int
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:  5 * time.Minute,
		Mode:      ModeIncremental,
		FullEvery: 12,
	}
}

// Poller refreshes a Store on a fixed interval.
type Poller struct {
	store  *Store
	config PollerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPoller(store *Store, config PollerConfig) *Poller {
	return &Poller{
		store:  store,
		config: config,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("poller is already running")
	}

	if p.config.Interval <= 0 {
		return errors.New("poller interval must be positive")
	}

	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Poller started",
		"interval", p.config.Interval,
		"mode", p.config.Mode)

	return nil
}

// Stop signals the loop to exit and waits for it.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}

	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Poller stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Poller stop timed out")
		return ctx.Err()
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// runLoop owns the channels it was started with; a later Start gets its own.
func (p *Poller) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Always start with a full refresh.
	p.tick(ctx, ModeFull)

	ticks := 0

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++

			mode := p.config.Mode
			if p.config.FullEvery > 0 && ticks%p.config.FullEvery == 0 {
				mode = ModeFull
			}

			p.tick(ctx, mode)
		}
	}
}

func (p *Poller) tick(ctx context.Context, mode Mode) {
	_, err := p.store.Refresh(ctx, mode)
	if err == nil {
		return
	}

	if errors.Is(err, ErrStoreTornDown) {
		slog.InfoContext(ctx, "Store closed, poller idling")
		return
	}

	slog.WarnContext(ctx, "Periodic refresh failed",
		"mode", mode,
		"retryable", IsRetryable(err),
		"error", err)
}
