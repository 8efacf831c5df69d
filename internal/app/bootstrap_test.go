package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/infra"
	"coin_tracker/internal/service"
)

type fakeDownloader struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (f *fakeDownloader) DownloadIcon(ctx context.Context, coinID, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[coinID]++
	if f.fail[coinID] {
		return "", errors.New("bad status: 404")
	}
	return "/icons/" + coinID + ".png", nil
}

type memAssets struct {
	mu     sync.Mutex
	assets map[string]*domain.CoinAsset
}

func (m *memAssets) UpsertAsset(a *domain.CoinAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.CoinID] = &cp
	return nil
}

func (m *memAssets) GetAsset(id string) (*domain.CoinAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAssets) AllAssets() ([]domain.CoinAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CoinAsset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAssets) IconPaths() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for id, a := range m.assets {
		if a.HasIcon() {
			out[id] = a.IconPath
		}
	}
	return out, nil
}

func (m *memAssets) DeleteAsset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, id)
	return nil
}

func newTestBootstrap() (*Bootstrap, *fakeDownloader, *memAssets) {
	dl := &fakeDownloader{calls: map[string]int{}, fail: map[string]bool{"ghost": true}}
	assets := &memAssets{assets: map[string]*domain.CoinAsset{}}
	m := &infra.Metrics{}
	b := &Bootstrap{
		Metrics:    m,
		Market:     service.NewMarketService(10, m),
		Icons:      service.NewIconIndex(),
		Assets:     assets,
		Downloader: dl,
	}
	return b, dl, assets
}

func TestSyncIcons(t *testing.T) {
	b, dl, assets := newTestBootstrap()
	coins := []domain.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Image: "https://img/btc.png"},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Image: "https://img/eth.png"},
		{ID: "ghost", Symbol: "gho", Name: "Ghost", Image: "https://img/404.png"},
	}

	b.SyncIcons(context.Background(), coins)

	if b.Icons.Len() != 2 {
		t.Errorf("Expected 2 cached icons, got %d", b.Icons.Len())
	}
	if len(assets.assets) != 3 {
		t.Errorf("Expected 3 asset rows, got %d", len(assets.assets))
	}
	if assets.assets["ghost"].HasIcon() {
		t.Error("failed download should not record an icon path")
	}

	snap := b.Metrics.Snapshot()
	if snap.IconsSynced != 2 || snap.IconErrors != 1 {
		t.Errorf("unexpected icon metrics: %+v", snap)
	}

	// Second pass skips cached icons and retries the failure
	b.SyncIcons(context.Background(), coins)
	if dl.calls["bitcoin"] != 1 || dl.calls["ghost"] != 2 {
		t.Errorf("unexpected download calls: %v", dl.calls)
	}
}

func TestSyncIcons_PrunesUnlistedCoins(t *testing.T) {
	b, _, assets := newTestBootstrap()

	iconFile := filepath.Join(t.TempDir(), "dogecoin.png")
	if err := os.WriteFile(iconFile, []byte("png"), 0644); err != nil {
		t.Fatalf("write icon: %v", err)
	}
	assets.assets["dogecoin"] = &domain.CoinAsset{CoinID: "dogecoin", IconPath: iconFile}
	b.Icons.Set("dogecoin", iconFile)

	b.SyncIcons(context.Background(), []domain.Coin{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Image: "https://img/btc.png"},
	})

	if _, ok := assets.assets["dogecoin"]; ok {
		t.Error("unlisted coin should be removed from the catalog")
	}
	if _, ok := b.Icons.Lookup("dogecoin"); ok {
		t.Error("unlisted coin should be removed from the icon index")
	}
	if _, err := os.Stat(iconFile); !os.IsNotExist(err) {
		t.Errorf("icon file should be removed, stat err = %v", err)
	}
	if _, ok := assets.assets["bitcoin"]; !ok {
		t.Error("listed coin should stay in the catalog")
	}
}

func TestSyncIcons_EmptyListKeepsCatalog(t *testing.T) {
	b, _, assets := newTestBootstrap()
	assets.assets["bitcoin"] = &domain.CoinAsset{CoinID: "bitcoin", IconPath: "/icons/bitcoin.png"}

	b.SyncIcons(context.Background(), nil)

	if len(assets.assets) != 1 {
		t.Errorf("empty list should not prune, got %d rows", len(assets.assets))
	}
}

func TestRunIconSync_FollowsRefresh(t *testing.T) {
	b, _, _ := newTestBootstrap()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.RunIconSync(ctx)
		close(done)
	}()

	// Wait for the subscription before publishing
	time.Sleep(20 * time.Millisecond)
	b.Market.Replace([]domain.Coin{{ID: "solana", Name: "Solana", Symbol: "sol", Image: "https://img/sol.png"}}, time.Now())

	deadline := time.Now().Add(time.Second)
	for b.Icons.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if _, ok := b.Icons.Lookup("solana"); !ok {
		t.Error("Expected solana icon after refresh")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunIconSync did not stop")
	}
}

func TestInitialize_IconsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "logging:\n  level: \"error\"\n  file: \"" + filepath.Join(dir, "app.log") + "\"\napi:\n  refresh_interval_sec: 300\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	b := NewBootstrap()
	if err := b.Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	if b.Source == nil || b.Market == nil {
		t.Fatal("Source and Market should be set")
	}
	if b.Downloader != nil || b.Assets != nil {
		t.Error("icon cache should be disabled")
	}
	if b.RefreshInterval() != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", b.RefreshInterval())
	}
}
