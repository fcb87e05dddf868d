package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrJamesThe3rd/coinbag/internal/lru"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=portfolio

const overviewKey = "overview"

// ErrNoOverview is returned when a fetch fails and nothing was fetched before.
var ErrNoOverview = errors.New("no portfolio overview available")

type Source interface {
	FetchPortfolio(ctx context.Context) (Portfolio, error)
	FetchAccounts(ctx context.Context) ([]Account, error)
}

// Service serves the overview, fetching at most once per ttl. Concurrent
// callers share one fetch. A failed fetch falls back to the last good
// overview marked Stale.
type Service struct {
	source Source
	now    func() time.Time
	cache  *lru.Cache[string, Overview]
	flight singleflight.Group

	mu   sync.Mutex
	last *Overview
}

func NewService(source Source, ttl time.Duration) *Service {
	return &Service{
		source: source,
		now:    time.Now,
		cache:  lru.New[string, Overview](1, ttl),
	}
}

// Overview returns the cached overview or fetches a fresh one. On failure it
// returns the last good overview with Stale set alongside the error.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if o, ok := s.cache.Get(overviewKey); ok {
		return o, nil
	}

	detached := context.WithoutCancel(ctx)

	ch := s.flight.DoChan(overviewKey, func() (any, error) {
		return s.fetch(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return s.fallback(res.Err)
		}

		return res.Val.(Overview), nil
	case <-ctx.Done():
		return s.fallback(ctx.Err())
	}
}

func (s *Service) fetch(ctx context.Context) (Overview, error) {
	var (
		p        Portfolio
		accounts []Account
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if p, err = s.source.FetchPortfolio(gctx); err != nil {
			return fmt.Errorf("fetching portfolio: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error
		if accounts, err = s.source.FetchAccounts(gctx); err != nil {
			return fmt.Errorf("fetching accounts: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	o := Overview{Portfolio: p, Accounts: accounts, FetchedAt: s.now().UTC()}

	s.mu.Lock()
	s.last = &o
	s.mu.Unlock()

	s.cache.Set(overviewKey, o)

	return o, nil
}

func (s *Service) fallback(err error) (Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Overview{}, fmt.Errorf("%w: %w", ErrNoOverview, err)
	}

	o := *s.last
	o.Stale = true

	return o, err
}
