package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/infra"
	"coin_tracker/internal/view"
)

// MarketService holds the last successfully fetched market list for the
// session and derives views from it.
type MarketService struct {
	mu        sync.RWMutex
	records   []domain.Coin
	fetchedAt time.Time
	pageSize  int

	subMu       sync.Mutex
	subscribers map[int]chan struct{}
	nextSubID   int

	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewMarketService creates a new MarketService instance
func NewMarketService(pageSize int, metrics *infra.Metrics) *MarketService {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &MarketService{
		pageSize:    pageSize,
		subscribers: make(map[int]chan struct{}),
		metrics:     metrics,
		logger:      slog.Default().With("module", "market_service"),
	}
}

// PageSize returns the configured rows per page
func (s *MarketService) PageSize() int {
	return s.pageSize
}

// Replace swaps in a new record list and notifies subscribers
func (s *MarketService) Replace(records []domain.Coin, fetchedAt time.Time) {
	s.mu.Lock()
	s.records = records
	s.fetchedAt = fetchedAt
	s.mu.Unlock()

	s.notify()
}

// Records returns the current list. Callers must not modify it.
func (s *MarketService) Records() []domain.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records
}

// FetchedAt returns when the current list was fetched (zero if never)
func (s *MarketService) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchedAt
}

// View computes the page for params over the current list.
// A zero PageSize in params uses the service page size.
func (s *MarketService) View(params domain.ViewParameters) domain.Page {
	if params.PageSize <= 0 {
		params.PageSize = s.pageSize
	}

	start := time.Now()
	page := view.Compute(s.Records(), params)
	s.metrics.RecordView(time.Since(start).Nanoseconds())

	return page
}

// Subscribe returns a channel signalled after every Replace, and a cancel func.
// Signals coalesce: a slow reader sees at most one pending notification.
func (s *MarketService) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *MarketService) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Refresh fetches a new list from source. On failure the error is logged and
// the current list (possibly empty) is kept.
func (s *MarketService) Refresh(ctx context.Context, source domain.MarketSource) error {
	coins, err := source.FetchMarkets(ctx)
	if err != nil {
		s.metrics.RecordFetchError()
		s.logger.Error("Market fetch failed, keeping current list",
			slog.Any("error", err),
			slog.Int("records", len(s.Records())),
		)
		return err
	}

	s.Replace(coins, time.Now())
	s.metrics.RecordFetch(len(coins))
	s.logger.Info("Market list updated", slog.Int("records", len(coins)))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
// A non-positive interval fetches once.
func (s *MarketService) Run(ctx context.Context, source domain.MarketSource, interval time.Duration) {
	_ = s.Refresh(ctx, source)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Market refresh stopped")
			return
		case <-ticker.C:
			_ = s.Refresh(ctx, source)
		}
	}
}
