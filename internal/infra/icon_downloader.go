package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"coin_tracker/internal/domain"

	"github.com/disintegration/imaging"
)

// IconDownloader handles downloading and caching coin icons
type IconDownloader struct {
	basePath string
	size     int
	client   *http.Client
}

// NewIconDownloader creates a new IconDownloader.
// An empty dir resolves to the per-user config directory.
func NewIconDownloader(dir string, size int) (*IconDownloader, error) {
	path := dir
	if path == "" {
		var err error
		path, err = getAssetsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assets path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}

	if size <= 0 {
		size = DefaultIconSize
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath: path,
		size:     size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for a coin if it doesn't exist
// Returns the local file path on success
// Images are resized to size x size pixels for consistent table rows
func (d *IconDownloader) DownloadIcon(ctx context.Context, coinID, imageURL string) (string, error) {
	filePath, err := d.IconPath(coinID)
	if err != nil {
		return "", err
	}

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	if imageURL == "" {
		return "", fmt.Errorf("no image reference for %s", coinID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", domain.NewNetworkError("download icon", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewFatalNetworkError("download icon", &domain.StatusError{Code: resp.StatusCode})
	}

	// Decode the image
	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, d.size, d.size, imaging.Lanczos)

	// Save the resized image
	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// IconPath returns the local path for a coin's icon
func (d *IconDownloader) IconPath(coinID string) (string, error) {
	// Security: Sanitize id to prevent path traversal
	safeID := sanitizeCoinID(coinID)
	if safeID == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCoinID, coinID)
	}
	return filepath.Join(d.basePath, strings.ToLower(safeID)+".png"), nil
}

func getAssetsPath() (string, error) {
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

	return filepath.Join(configDir, "CoinTracker", "assets", "icons"), nil
}

// sanitizeCoinID keeps letters, digits and dashes (CoinGecko ids are
// slug-like, e.g. "wrapped-bitcoin").
func sanitizeCoinID(id string) string {
	res := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			res = append(res, r)
		}
	}
	return strings.Trim(string(res), "-")
}
