package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/infra"
	"coin_tracker/internal/infra/coingecko"
	"coin_tracker/internal/infra/storage"
	"coin_tracker/internal/service"

	"golang.org/x/sync/errgroup"
)

// IconFetcher downloads and caches a coin icon, returning its local path.
type IconFetcher interface {
	DownloadIcon(ctx context.Context, coinID, imageURL string) (string, error)
}

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Metrics    *infra.Metrics
	Source     domain.MarketSource
	Market     *service.MarketService
	Icons      *service.IconIndex
	Assets     domain.AssetRepository
	Downloader IconFetcher

	storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{
		Metrics: infra.GlobalMetrics,
		Icons:   service.NewIconIndex(),
	}
}

// Initialize performs core system initialization (config, logger, DB, clients)
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping Coin Tracker...", slog.String("config", configPath))

	// 3. Market source + session store
	b.Source = coingecko.NewClient(cfg)
	b.Market = service.NewMarketService(cfg.View.PageSize, b.Metrics)

	if !cfg.Icons.Enabled {
		slog.Info("Icon cache disabled, using remote image references")
		return nil
	}

	// 4. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.storage = store
	b.Assets = store
	slog.Info("✅ Database initialized")

	paths, err := store.IconPaths()
	if err != nil {
		slog.Warn("Failed to load icon catalog", slog.Any("error", err))
	} else {
		b.Icons.Load(paths)
	}

	// 5. Initialize Icon Downloader
	downloader, err := infra.NewIconDownloader(cfg.Icons.Dir, cfg.Icons.Size)
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Icon downloader ready", slog.Int("cached", b.Icons.Len()))

	return nil
}

// RefreshInterval returns the configured market refresh interval (0 = once).
func (b *Bootstrap) RefreshInterval() time.Duration {
	return time.Duration(b.Config.API.RefreshIntervalSec) * time.Second
}

// RunIconSync syncs icons after every market list replacement until ctx ends.
func (b *Bootstrap) RunIconSync(ctx context.Context) {
	if b.Downloader == nil || b.Assets == nil {
		return
	}

	changes, cancel := b.Market.Subscribe()
	defer cancel()

	// A list may already be loaded before the subscription existed
	if records := b.Market.Records(); len(records) > 0 {
		b.SyncIcons(ctx, records)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			b.SyncIcons(ctx, b.Market.Records())
		}
	}
}

// SyncIcons downloads missing icons for coins with bounded concurrency and
// records them in the asset catalog.
func (b *Bootstrap) SyncIcons(ctx context.Context, coins []domain.Coin) {
	if b.Downloader == nil || b.Assets == nil {
		return
	}

	slog.Info("🔄 Starting icon synchronization...", slog.Int("coins", len(coins)))

	workers := infra.DefaultIconWorkers
	if b.Config != nil && b.Config.Icons.Workers > 0 {
		workers = b.Config.Icons.Workers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers) // Limit concurrent downloads

	for _, coin := range coins {
		if _, ok := b.Icons.Lookup(coin.ID); ok {
			continue
		}
		g.Go(func() error {
			b.syncIcon(gctx, coin)
			return nil
		})
	}

	g.Wait()
	slog.Info("✨ Icon synchronization completed", slog.Int("cached", b.Icons.Len()))

	if len(coins) > 0 && ctx.Err() == nil {
		b.PruneAssets(coins)
	}
}

// PruneAssets removes catalog rows and cached icon files for coins that are no
// longer in the market list.
func (b *Bootstrap) PruneAssets(coins []domain.Coin) {
	listed := make(map[string]struct{}, len(coins))
	for _, coin := range coins {
		listed[coin.ID] = struct{}{}
	}

	assets, err := b.Assets.AllAssets()
	if err != nil {
		slog.Warn("Failed to list asset catalog", slog.Any("error", err))
		return
	}

	pruned := 0
	for i := range assets {
		asset := &assets[i]
		if _, ok := listed[asset.CoinID]; ok {
			continue
		}
		if err := b.Assets.DeleteAsset(asset.CoinID); err != nil {
			slog.Warn("Failed to delete asset", slog.String("coin", asset.CoinID), slog.Any("error", err))
			continue
		}
		b.Icons.Delete(asset.CoinID)
		if asset.HasIcon() {
			if err := os.Remove(asset.IconPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Debug("Failed to remove icon file", slog.String("path", asset.IconPath), slog.Any("error", err))
			}
		}
		pruned++
	}

	if pruned > 0 {
		slog.Info("🧹 Pruned unlisted assets", slog.Int("count", pruned))
	}
}

func (b *Bootstrap) syncIcon(ctx context.Context, coin domain.Coin) {
	if ctx.Err() != nil {
		return
	}

	asset := &domain.CoinAsset{
		CoinID:   coin.ID,
		Symbol:   coin.Symbol,
		Name:     coin.Name,
		ImageURL: coin.Image,
	}

	// Preserve CreatedAt for existing rows
	if existing, _ := b.Assets.GetAsset(coin.ID); existing != nil {
		asset.CreatedAt = existing.CreatedAt
		if existing.HasIcon() {
			asset.IconPath = existing.IconPath
			asset.LastSyncedAt = existing.LastSyncedAt
		}
	}

	path, err := b.Downloader.DownloadIcon(ctx, coin.ID, coin.Image)
	b.Metrics.RecordIcon(err)
	if err != nil {
		slog.Warn("Failed to download icon", slog.String("coin", coin.ID), slog.Any("error", err))
	} else {
		asset.IconPath = path
		asset.LastSyncedAt = time.Now()
		b.Icons.Set(coin.ID, path)
	}

	if err := b.Assets.UpsertAsset(asset); err != nil {
		slog.Error("Failed to upsert asset", slog.String("coin", coin.ID), slog.Any("error", err))
	}
}

// Close releases resources opened by Initialize
func (b *Bootstrap) Close() {
	if b.storage != nil {
		if err := b.storage.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
	}
}
