// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"

	"github.com/okian/sentiscan/internal/domain/types"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// DataDir is the root of the snapshot and summary artifacts.
	DataDir string `koanf:"data_dir" validate:"required"`

	// StorageBackend selects the repository implementation.
	StorageBackend string `koanf:"storage_backend" validate:"oneof=file sqlite memory"`

	// ReviewCount, Lang and Country are passed to the scraper for every date.
	ReviewCount int    `koanf:"review_count" validate:"min=1,max=500"`
	Lang        string `koanf:"lang" validate:"required"`
	Country     string `koanf:"country" validate:"required"`

	// ScraperURL is the base URL of the review scraper sidecar.
	ScraperURL       string `koanf:"scraper_url" validate:"required,url"`
	ScraperTimeoutMS int    `koanf:"scraper_timeout_ms" validate:"min=0"`

	// FetchConcurrency bounds parallel date fetches within one range.
	FetchConcurrency int `koanf:"fetch_concurrency" validate:"min=1"`

	// MaxRangeDays caps how many days one requested range may span.
	MaxRangeDays int `koanf:"max_range_days" validate:"min=1,max=3660"`

	// LLM settings.
	LLMProvider          string  `koanf:"llm_provider" validate:"oneof=openai anthropic"`
	LLMAPIKey            string  `koanf:"llm_api_key"`
	LLMModel             string  `koanf:"llm_model"`
	LLMMaxTokens         int     `koanf:"llm_max_tokens" validate:"min=1"`
	LLMTemperature       float64 `koanf:"llm_temperature" validate:"min=0,max=2"`
	LLMBaseURL           string  `koanf:"llm_base_url" validate:"omitempty,url"`
	LLMRequestsPerMinute int     `koanf:"llm_requests_per_minute" validate:"min=0"`
	LLMTimeoutMS         int     `koanf:"llm_timeout_ms" validate:"min=0"`

	// SummaryMemoSize caps the in-memory summary LRU.
	SummaryMemoSize int `koanf:"summary_memo_size" validate:"min=1"`

	// SummaryTimeoutMS bounds one shared summary generation; 0 keeps the
	// built-in limit.
	SummaryTimeoutMS int `koanf:"summary_timeout_ms" validate:"min=0"`

	// MetricsEnabled turns the Prometheus recorders on.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required"`

	// MetricsRefreshMS is the period of the process gauge updater.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms" validate:"min=100"`

	// Apps maps display names to Play Store package ids.
	Apps map[string]string `koanf:"apps"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DataDir:              "data",
		StorageBackend:       "file",
		ReviewCount:          200,
		Lang:                 "en",
		Country:              "us",
		ScraperURL:           "http://localhost:3000",
		ScraperTimeoutMS:     30_000,
		FetchConcurrency:     4,
		MaxRangeDays:         92,
		LLMProvider:          "openai",
		LLMMaxTokens:         1000,
		LLMTemperature:       0.7,
		LLMRequestsPerMinute: 60,
		LLMTimeoutMS:         60_000,
		SummaryMemoSize:      512,
		SummaryTimeoutMS:     180_000,
		MetricsEnabled:       true,
		MetricsNamespace:     "sentiscan",
		MetricsRefreshMS:     10_000,
		Apps:                 types.DefaultApps(),
	}
}

// ScraperTimeout returns the scraper request timeout.
func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.ScraperTimeoutMS) * time.Millisecond
}

// LLMTimeout returns the LLM request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// SummaryTimeout returns the bound on one shared summary generation.
func (c *Config) SummaryTimeout() time.Duration {
	return time.Duration(c.SummaryTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns the process gauge refresh period.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}
