package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"coin_tracker/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists the coin icon catalog
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance.
// An empty dbPath resolves to the per-user config directory.
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.CoinAsset{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CoinTracker", "data", "cointracker.db"), nil
}

// Close releases the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertAsset creates or updates icon metadata
func (s *Storage) UpsertAsset(asset *domain.CoinAsset) error {
	return s.db.Save(asset).Error
}

// GetAsset retrieves icon metadata by coin id
func (s *Storage) GetAsset(coinID string) (*domain.CoinAsset, error) {
	var asset domain.CoinAsset
	err := s.db.First(&asset, "coin_id = ?", coinID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// AllAssets retrieves all cached assets ordered by coin id
func (s *Storage) AllAssets() ([]domain.CoinAsset, error) {
	var assets []domain.CoinAsset
	err := s.db.Order("coin_id").Find(&assets).Error
	return assets, err
}

// IconPaths returns coin id -> local icon path for assets that have an icon
func (s *Storage) IconPaths() (map[string]string, error) {
	var assets []domain.CoinAsset
	if err := s.db.Where("icon_path <> ''").Find(&assets).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string, len(assets))
	for _, a := range assets {
		result[a.CoinID] = a.IconPath
	}
	return result, nil
}

// DeleteAsset deletes a coin's asset record
func (s *Storage) DeleteAsset(coinID string) error {
	return s.db.Where("coin_id = ?", coinID).Delete(&domain.CoinAsset{}).Error
}
