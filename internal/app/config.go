package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/sentiscan/internal/adapters/llm"
	"github.com/okian/sentiscan/internal/adapters/playstore"
	"github.com/okian/sentiscan/internal/config"
	"github.com/okian/sentiscan/pkg/logger"
)

// FromConfig translates a loaded Config into service options, building the
// scraper and LLM clients it names. A missing LLM key is not fatal: the
// service starts and summaries fail with a SummaryError.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) ([]Option, error) {
	if log == nil {
		log = logger.Get()
	}
	opts := []Option{
		WithLogger(log),
		WithStorage(cfg.StorageBackend, cfg.DataDir),
		WithFetchSettings(cfg.ReviewCount, cfg.Lang, cfg.Country),
		WithFetchConcurrency(cfg.FetchConcurrency),
		WithMaxRangeDays(cfg.MaxRangeDays),
		WithSummaryMemoSize(cfg.SummaryMemoSize),
		WithSummaryTimeout(cfg.SummaryTimeout()),
		WithGeneration(cfg.LLMMaxTokens, cfg.LLMTemperature),
		WithApps(cfg.Apps),
		WithSource(playstore.NewHTTPSource(cfg.ScraperURL,
			playstore.WithTimeout(cfg.ScraperTimeout()),
			playstore.WithClientLogger(log.Named("scraper")),
		)),
	}

	llmOpts := []llm.Option{
		llm.WithAPIKey(cfg.LLMAPIKey),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithRequestsPerMinute(cfg.LLMRequestsPerMinute),
		llm.WithLogger(log.Named("llm")),
	}
	if cfg.LLMModel != "" {
		llmOpts = append(llmOpts, llm.WithModel(cfg.LLMModel))
	}
	if cfg.LLMBaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.LLMBaseURL))
	}
	client, err := llm.New(cfg.LLMProvider, llmOpts...)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Warn(ctx, "llm api key not set", logger.String("provider", cfg.LLMProvider))
	case err != nil:
		return nil, fmt.Errorf("build llm client: %w", err)
	default:
		opts = append(opts, WithLLM(client))
	}
	return opts, nil
}
