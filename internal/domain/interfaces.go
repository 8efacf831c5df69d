package domain

import (
	"context"
)

// MarketSource fetches the current market list
type MarketSource interface {
	FetchMarkets(ctx context.Context) ([]Coin, error)
}

// AssetRepository stores cached icon metadata
type AssetRepository interface {
	UpsertAsset(asset *CoinAsset) error
	GetAsset(coinID string) (*CoinAsset, error)
	AllAssets() ([]CoinAsset, error)
	IconPaths() (map[string]string, error)
	DeleteAsset(coinID string) error
}
