// Package app builds the runtime components shared by the command binaries
// from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/phuslu/log"

	"TradingCore/internal/collector"
	"TradingCore/internal/config"
	"TradingCore/internal/contextstore"
	"TradingCore/internal/llm"
	"TradingCore/internal/subscriber"
)

// SetupLogger installs the global console logger at the configured level.
func SetupLogger(level string) {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		Caller:     1,
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
		},
	}
}

// NewScorer builds the configured model provider, throttled when a rate is set.
func NewScorer(ctx context.Context, cfg *config.Config) (*llm.Scorer, error) {
	p, err := llm.NewProvider(ctx, cfg.LLM.Provider, cfg.LLM.APIKey)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", p.Name()).Str("model", cfg.LLM.Model).Msg("llm provider ready")
	p = llm.WithRateLimit(p, cfg.LLM.RequestsPerSecond)
	return llm.NewScorer(p, llm.ScorerOptions{
		Model:              cfg.LLM.Model,
		Temperature:        cfg.LLM.Temperature,
		ContextModel:       cfg.LLM.ContextModel,
		ContextTemperature: cfg.LLM.ContextTemperature,
		MaxTokens:          cfg.LLM.MaxTokens,
	}), nil
}

// NewNewsFetcher returns the configured news provider.
func NewNewsFetcher(cfg *config.Config) collector.NewsFetcher {
	if cfg.News.Provider == "finnhub" {
		return collector.NewFinnhubFetcher(cfg.News.APIKey, cfg.Prices.Suffix)
	}
	return collector.NewEventRegistryFetcher(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Language, cfg.Proxy)
}

// NewContextStore opens the configured strategic-context backend.
// The returned closer is never nil.
func NewContextStore(ctx context.Context, cfg *config.Config) (contextstore.Store, io.Closer, error) {
	if cfg.Context.Backend == "redis" {
		rs, err := contextstore.NewRedisStore(ctx, cfg.Context.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open context store: %w", err)
		}
		return rs, rs, nil
	}
	return contextstore.NewFileStore(cfg.Context.Dir), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSubscriberSource returns the configured subscriber list backend.
func NewSubscriberSource(ctx context.Context, cfg *config.Config) (subscriber.Source, error) {
	cols := subscriber.Columns{
		Name:    cfg.Subscribers.NameColumn,
		Email:   cfg.Subscribers.EmailColumn,
		Tickers: cfg.Subscribers.TickersColumn,
	}
	if cfg.Subscribers.Source == "csv" {
		return subscriber.NewCSVSource(cfg.Subscribers.CSVPath, cols), nil
	}
	return subscriber.NewSheetsSource(ctx, cfg.Subscribers.SheetID, cfg.Subscribers.SheetRange,
		cfg.Subscribers.CredentialsFile, cols)
}
