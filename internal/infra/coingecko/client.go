// Package coingecko fetches the coin market list from the CoinGecko REST API.
package coingecko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/infra"
)

const (
	marketsPath = "/coins/markets"
	maxAttempts = 3
	maxBodySize = 16 << 20
)

// Client is the CoinGecko markets client.
type Client struct {
	baseURL    string
	vsCurrency string
	perPage    int
	httpClient *http.Client
	backoff    func(retry int) time.Duration
	logger     *slog.Logger
}

// NewClient creates a markets client from configuration.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL:    cfg.API.BaseURL,
		vsCurrency: cfg.API.VsCurrency,
		perPage:    cfg.API.PerPage,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		},
		backoff: infra.CalculateBackoff,
		logger:  slog.Default().With("module", "coingecko"),
	}
}

// FetchMarkets fetches the market list with retry logic.
// Retriable failures (transport errors, 429, 5xx) are retried with
// exponential backoff; anything else returns immediately.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Coin, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			delay := c.backoff(i - 1)
			c.logger.Info("Retrying market fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		coins, err := c.doFetch(ctx)
		if err == nil {
			return coins, nil
		}
		lastErr = err
		c.logger.Warn("Market fetch attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))

		if !domain.IsRetriable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) marketsURL() (string, error) {
	u, err := url.Parse(c.baseURL + marketsPath)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doFetch(ctx context.Context) ([]domain.Coin, error) {
	endpoint, err := c.marketsURL()
	if err != nil {
		return nil, &domain.ConfigError{Field: "api.base_url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	// Add browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewNetworkError("fetch markets", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &domain.StatusError{Code: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, domain.NewNetworkError("fetch markets", statusErr)
		}
		return nil, domain.NewFatalNetworkError("fetch markets", statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domain.NewNetworkError("read markets", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, domain.NewNetworkError("read markets", domain.ErrEmptyResponse)
	}

	var raw []domain.Coin
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewFatalNetworkError("decode markets", err)
	}

	coins := make([]domain.Coin, 0, len(raw))
	for _, coin := range raw {
		if !coin.HasRequiredFields() {
			c.logger.Debug("Dropping market record without id/name/symbol", slog.String("id", coin.ID))
			continue
		}
		coins = append(coins, coin)
	}

	if dropped := len(raw) - len(coins); dropped > 0 {
		c.logger.Warn("Dropped incomplete market records", slog.Int("dropped", dropped))
	}

	return coins, nil
}

// String identifies the source in logs.
func (c *Client) String() string {
	return fmt.Sprintf("coingecko(%s, %s)", c.baseURL, c.vsCurrency)
}
