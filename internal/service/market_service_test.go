package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/infra"

	"github.com/shopspring/decimal"
)

type fakeSource struct {
	coins []domain.Coin
	err   error
	calls atomic.Int32
}

func (f *fakeSource) FetchMarkets(ctx context.Context) ([]domain.Coin, error) {
	f.calls.Add(1)
	return f.coins, f.err
}

func sampleCoins() []domain.Coin {
	return []domain.Coin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Rank: 1, Price: decimal.NewFromInt(67000)},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", Rank: 2, Price: decimal.NewFromInt(3500)},
		{ID: "dogecoin", Name: "Dogecoin", Symbol: "doge", Rank: 12, Price: decimal.NewFromFloat(0.12)},
	}
}

func TestMarketService_RefreshSuccess(t *testing.T) {
	m := &infra.Metrics{}
	svc := NewMarketService(10, m)

	if err := svc.Refresh(context.Background(), &fakeSource{coins: sampleCoins()}); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if len(svc.Records()) != 3 {
		t.Errorf("Expected 3 records, got %d", len(svc.Records()))
	}
	if svc.FetchedAt().IsZero() {
		t.Error("FetchedAt should be set")
	}
	if snap := m.Snapshot(); snap.FetchesTotal != 1 || snap.RecordsHeld != 3 {
		t.Errorf("unexpected metrics: %+v", snap)
	}
}

func TestMarketService_RefreshFailureKeepsList(t *testing.T) {
	m := &infra.Metrics{}
	svc := NewMarketService(10, m)
	svc.Replace(sampleCoins(), time.Now())

	err := svc.Refresh(context.Background(), &fakeSource{err: errors.New("boom")})
	if err == nil {
		t.Fatal("Expected error")
	}

	if len(svc.Records()) != 3 {
		t.Errorf("Expected previous 3 records kept, got %d", len(svc.Records()))
	}
	if m.Snapshot().FetchErrors != 1 {
		t.Error("Expected fetch error to be counted")
	}
}

func TestMarketService_FailedInitialFetchIsEmptyView(t *testing.T) {
	svc := NewMarketService(10, &infra.Metrics{})
	svc.Refresh(context.Background(), &fakeSource{err: errors.New("offline")})

	page := svc.View(domain.ViewParameters{Page: 1})
	if len(page.Coins) != 0 || page.TotalPages != 0 {
		t.Errorf("Expected empty page, got %+v", page)
	}
}

func TestMarketService_View(t *testing.T) {
	m := &infra.Metrics{}
	svc := NewMarketService(2, m)
	svc.Replace(sampleCoins(), time.Now())

	page := svc.View(domain.ViewParameters{Sort: domain.SortPriceAsc, Page: 1})
	if page.PageSize != 2 {
		t.Errorf("Expected service page size 2, got %d", page.PageSize)
	}
	if page.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", page.TotalPages)
	}
	if len(page.Coins) != 2 || page.Coins[0].ID != "dogecoin" {
		t.Errorf("unexpected first page: %+v", page.Coins)
	}

	top := svc.View(domain.ViewParameters{Category: domain.CategoryTop10, Page: 1, PageSize: 10})
	if top.Total != 2 {
		t.Errorf("Expected 2 top-10 coins, got %d", top.Total)
	}

	if m.Snapshot().ViewsComputed != 2 {
		t.Errorf("Expected 2 views recorded, got %d", m.Snapshot().ViewsComputed)
	}
}

func TestMarketService_Subscribe(t *testing.T) {
	svc := NewMarketService(10, &infra.Metrics{})
	ch, cancel := svc.Subscribe()

	svc.Replace(sampleCoins(), time.Now())
	svc.Replace(sampleCoins(), time.Now()) // coalesced

	select {
	case <-ch:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Expected notification")
	}

	select {
	case <-ch:
		t.Fatal("Notifications should coalesce")
	default:
	}

	cancel()
	cancel() // idempotent
	svc.Replace(nil, time.Now())

	select {
	case <-ch:
		t.Fatal("Cancelled subscriber should not be notified")
	default:
	}
}

func TestMarketService_RunOnce(t *testing.T) {
	src := &fakeSource{coins: sampleCoins()}
	svc := NewMarketService(10, &infra.Metrics{})

	svc.Run(context.Background(), src, 0)

	if src.calls.Load() != 1 {
		t.Errorf("Expected 1 fetch, got %d", src.calls.Load())
	}
}

func TestMarketService_RunPolls(t *testing.T) {
	src := &fakeSource{coins: sampleCoins()}
	svc := NewMarketService(10, &infra.Metrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, src, 10*time.Millisecond)
		close(done)
	}()

	// Give it a moment to poll
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if src.calls.Load() < 2 {
		t.Errorf("Expected repeated fetches, got %d", src.calls.Load())
	}
}
