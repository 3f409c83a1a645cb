package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/bus"
	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/ledger"
)

// Dashboard is the full derived view for one calendar month.
type Dashboard struct {
	Year       int
	Month      int
	Summary    core.LedgerSummary
	Weeks      []core.WeekBucket
	Categories []core.CategoryAmount
	Alerts     AlertReport
}

// DashboardService assembles per-month dashboards. Snapshots are cached only
// between change signals: any write to either collection purges the cache,
// so a dashboard never survives the write that made it stale.
type DashboardService struct {
	repo  *ledger.Repository
	cache *cache.LRU[Dashboard]
	clock func() time.Time
}

func NewDashboardService(repo *ledger.Repository) *DashboardService {
	return &DashboardService{
		repo:  repo,
		cache: cache.NewLRU[Dashboard](24, 5*time.Minute),
		clock: time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *DashboardService) WithClock(clock func() time.Time) *DashboardService {
	s.clock = clock
	return s
}

// WatchChanges subscribes to the change bus; every event drops all cached
// dashboards. Returns the subscription's cancel function.
func (s *DashboardService) WatchChanges(b *bus.Bus) (cancel func()) {
	return b.Subscribe(func(ev bus.Event) {
		s.cache.Purge()
		slog.Debug("Dashboard cache purged", "collection", ev.Collection)
	})
}

// Cache exposes the snapshot cache for lifecycle management (periodic
// expiry cleanup).
func (s *DashboardService) Cache() *cache.LRU[Dashboard] {
	return s.cache
}

// Current builds the dashboard for the month containing now.
func (s *DashboardService) Current(ctx context.Context) (Dashboard, error) {
	now := s.clock()
	return s.Month(ctx, now.Year(), int(now.Month()))
}

// Month builds the dashboard for a specific month, serving a cached copy
// when no change signal has arrived since it was computed.
func (s *DashboardService) Month(ctx context.Context, year, month int) (Dashboard, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	if d, ok := s.cache.Get(key); ok {
		return d, nil
	}

	bills, err := s.repo.Bills(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	incomes, err := s.repo.Incomes(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	today := core.DateOf(s.clock())
	d := Dashboard{
		Year:       year,
		Month:      month,
		Summary:    Summarize(bills, incomes, s.clock()),
		Weeks:      WeeklyBuckets(bills, year, month),
		Categories: CategoryTotals(bills, year, month),
		Alerts:     DueAlerts(bills, today),
	}
	s.cache.Set(key, d)
	return d, nil
}
