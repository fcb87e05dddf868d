// Package insights derives spending summaries from transaction snapshots.
package insights

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/coinbag/internal/lru"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
	"github.com/MrJamesThe3rd/coinbag/internal/transaction"
)

const topCategories = 5

// CategorySpending is the expense total of one category over a period.
// A zero BudgetLimit means the category has no budget and is never overspent.
type CategorySpending struct {
	Category  transaction.Category
	Spent     decimal.Decimal
	Overspent decimal.Decimal
	Count     int
}

func (c CategorySpending) IsOverspent() bool {
	return c.Overspent.IsPositive()
}

// OverspendingReport lists category spending, most overspent first.
type OverspendingReport struct {
	Version    uint64
	Period     Period
	Categories []CategorySpending
}

// Overspent returns only the categories over their budget.
func (r OverspendingReport) Overspent() []CategorySpending {
	var out []CategorySpending

	for _, c := range r.Categories {
		if c.IsOverspent() {
			out = append(out, c)
		}
	}

	return out
}

// Dashboard summarizes a period.
type Dashboard struct {
	Version       uint64
	Period        Period
	Income        decimal.Decimal
	Expense       decimal.Decimal
	Net           decimal.Decimal
	Count         int
	TopCategories []CategorySpending
}

// ComputeOverspending aggregates expenses per category within period.
func ComputeOverspending(snap syncstore.Snapshot, period Period) OverspendingReport {
	byCategory := make(map[uuid.UUID]*CategorySpending)

	for _, tx := range snap.Records() {
		if tx.Type != transaction.TypeExpense || !period.Contains(tx.Date) {
			continue
		}

		cs, ok := byCategory[tx.Category.ID]
		if !ok {
			cs = &CategorySpending{Category: tx.Category, Spent: decimal.Zero}
			byCategory[tx.Category.ID] = cs
		}

		cs.Spent = cs.Spent.Add(tx.Amount)
		cs.Count++
	}

	categories := make([]CategorySpending, 0, len(byCategory))

	for _, cs := range byCategory {
		cs.Overspent = decimal.Zero
		if cs.Category.BudgetLimit.IsPositive() && cs.Spent.GreaterThan(cs.Category.BudgetLimit) {
			cs.Overspent = cs.Spent.Sub(cs.Category.BudgetLimit)
		}

		categories = append(categories, *cs)
	}

	slices.SortFunc(categories, func(a, b CategorySpending) int {
		if c := b.Overspent.Cmp(a.Overspent); c != 0 {
			return c
		}

		if c := b.Spent.Cmp(a.Spent); c != 0 {
			return c
		}

		return cmp.Compare(a.Category.Name, b.Category.Name)
	})

	return OverspendingReport{
		Version:    snap.Version,
		Period:     period,
		Categories: categories,
	}
}

// ComputeDashboard totals income and expenses within period.
func ComputeDashboard(snap syncstore.Snapshot, period Period) Dashboard {
	d := Dashboard{
		Version: snap.Version,
		Period:  period,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}

	for _, tx := range snap.Records() {
		if !period.Contains(tx.Date) {
			continue
		}

		d.Count++

		switch tx.Type {
		case transaction.TypeIncome:
			d.Income = d.Income.Add(tx.Amount)
		case transaction.TypeExpense:
			d.Expense = d.Expense.Add(tx.Amount)
		}
	}

	d.Net = d.Income.Sub(d.Expense)

	byAmount := slices.Clone(ComputeOverspending(snap, period).Categories)
	slices.SortStableFunc(byAmount, func(a, b CategorySpending) int {
		return b.Spent.Cmp(a.Spent)
	})

	d.TopCategories = byAmount[:min(len(byAmount), topCategories)]

	return d
}

// SnapshotSource is satisfied by *syncstore.Store.
type SnapshotSource interface {
	CurrentSnapshot() syncstore.Snapshot
}

type cacheKey struct {
	version uint64
	start   int64
	end     int64
}

// Service serves reports for the current snapshot, memoized per snapshot version.
type Service struct {
	source       SnapshotSource
	overspending *lru.Cache[cacheKey, OverspendingReport]
	dashboards   *lru.Cache[cacheKey, Dashboard]
}

func NewService(source SnapshotSource, cacheSize int, ttl time.Duration) *Service {
	return &Service{
		source:       source,
		overspending: lru.New[cacheKey, OverspendingReport](cacheSize, ttl),
		dashboards:   lru.New[cacheKey, Dashboard](cacheSize, ttl),
	}
}

func (s *Service) Overspending(period Period) OverspendingReport {
	snap := s.source.CurrentSnapshot()
	key := keyFor(snap, period)

	if r, ok := s.overspending.Get(key); ok {
		return r
	}

	r := ComputeOverspending(snap, period)
	s.overspending.Set(key, r)

	return r
}

func (s *Service) Dashboard(period Period) Dashboard {
	snap := s.source.CurrentSnapshot()
	key := keyFor(snap, period)

	if d, ok := s.dashboards.Get(key); ok {
		return d
	}

	d := ComputeDashboard(snap, period)
	s.dashboards.Set(key, d)

	return d
}

// CleanExpired drops stale memoized reports.
func (s *Service) CleanExpired() int {
	return s.overspending.CleanExpired() + s.dashboards.CleanExpired()
}

func keyFor(snap syncstore.Snapshot, period Period) cacheKey {
	return cacheKey{
		version: snap.Version,
		start:   period.Start.UnixNano(),
		end:     period.End.UnixNano(),
	}
}
