package domain

import (
	"time"
)

// CoinAsset is the cached icon metadata for a coin
type CoinAsset struct {
	CoinID       string    `gorm:"primaryKey" json:"coin_id"`
	Symbol       string    `gorm:"index" json:"symbol"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"image_url"`     // Source image reference
	IconPath     string    `json:"icon_path"`     // Resized local copy
	LastSyncedAt time.Time `json:"last_synced_at"` // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasIcon reports whether a local icon has been stored for the asset.
func (a *CoinAsset) HasIcon() bool {
	return a.IconPath != ""
}
