package infra

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"coin_tracker/internal/domain"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultConfigPath    = "configs/config.yaml"
	DefaultAPIBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultVsCurrency    = "usd"
	DefaultPerPage       = 100
	DefaultAPITimeoutSec = 10
	DefaultServerAddr    = ":8080"
	DefaultIconSize      = 24
	DefaultIconWorkers   = 5
	DefaultLogFile       = "logs/app.log"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 값을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr        string `yaml:"addr" env:"COIN_SERVER_ADDR"`
		EnablePprof bool   `yaml:"enable_pprof" env:"COIN_PPROF"`
		PprofAddr   string `yaml:"pprof_addr"`
	} `yaml:"server"`

	API struct {
		BaseURL            string `yaml:"base_url" env:"COIN_API_BASE_URL"`
		VsCurrency         string `yaml:"vs_currency" env:"COIN_VS_CURRENCY"`
		PerPage            int    `yaml:"per_page"`
		TimeoutSec         int    `yaml:"timeout_sec"`
		RefreshIntervalSec int    `yaml:"refresh_interval_sec" env:"COIN_REFRESH_INTERVAL_SEC"`
	} `yaml:"api"`

	View struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"view"`

	Icons struct {
		Enabled bool   `yaml:"enabled" env:"COIN_ICONS_ENABLED"`
		Dir     string `yaml:"dir" env:"COIN_ICONS_DIR"`
		Size    int    `yaml:"size"`
		Workers int    `yaml:"workers"`
	} `yaml:"icons"`

	Storage struct {
		Path string `yaml:"path" env:"COIN_DB_PATH"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level" env:"COIN_LOG_LEVEL"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// A missing file is not fatal: defaults and environment still apply.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fall through to env + defaults
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Coin Tracker"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.PprofAddr == "" {
		c.Server.PprofAddr = "localhost:6060"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.VsCurrency == "" {
		c.API.VsCurrency = DefaultVsCurrency
	}
	if c.API.PerPage == 0 {
		c.API.PerPage = DefaultPerPage
	}
	if c.API.TimeoutSec == 0 {
		c.API.TimeoutSec = DefaultAPITimeoutSec
	}
	if c.View.PageSize == 0 {
		c.View.PageSize = domain.DefaultPageSize
	}
	if c.Icons.Size == 0 {
		c.Icons.Size = DefaultIconSize
	}
	if c.Icons.Workers == 0 {
		c.Icons.Workers = DefaultIconWorkers
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ConfigError{Field: "api.base_url", Err: fmt.Errorf("not an http(s) URL: %q", c.API.BaseURL)}
	}
	if c.API.PerPage < 1 || c.API.PerPage > 250 {
		return &domain.ConfigError{Field: "api.per_page", Err: fmt.Errorf("must be between 1 and 250, got %d", c.API.PerPage)}
	}
	if c.API.TimeoutSec < 0 {
		return &domain.ConfigError{Field: "api.timeout_sec", Err: errors.New("must not be negative")}
	}
	if c.API.RefreshIntervalSec < 0 {
		return &domain.ConfigError{Field: "api.refresh_interval_sec", Err: errors.New("must not be negative")}
	}
	if c.View.PageSize < 1 {
		return &domain.ConfigError{Field: "view.page_size", Err: errors.New("must be positive")}
	}
	if c.Icons.Size < 1 || c.Icons.Workers < 1 {
		return &domain.ConfigError{Field: "icons", Err: errors.New("size and workers must be positive")}
	}
	return nil
}
