// Command refresh-contexts regenerates the strategic context of every ticker
// currently followed by at least one subscriber.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"TradingCore/internal/app"
	"TradingCore/internal/config"
	"TradingCore/internal/contextstore"
	"TradingCore/internal/ticker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return 1
	}
	app.SetupLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scorer, err := app.NewScorer(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init llm provider")
		return 1
	}
	store, closer, err := app.NewContextStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init context store")
		return 1
	}
	defer closer.Close()
	resolver := contextstore.NewResolver(store, scorer)

	source, err := app.NewSubscriberSource(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init subscriber source")
		return 1
	}
	subs, err := source.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load subscribers")
		return 1
	}

	tickers := ticker.Unique(subs)
	log.Info().Int("tickers", len(tickers)).Msg("refreshing strategic contexts")

	failed := 0
	for _, t := range tickers {
		if ctx.Err() != nil {
			log.Warn().Msg("refresh interrupted")
			return 1
		}
		callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
		text, err := resolver.Refresh(callCtx, t)
		cancel()
		if err != nil {
			failed++
			log.Warn().Str("ticker", string(t)).Err(err).Msg("refresh failed")
			continue
		}
		log.Info().Str("ticker", string(t)).Int("chars", len(text)).Msg("context refreshed")
	}

	log.Info().Int("refreshed", len(tickers)-failed).Int("failed", failed).Msg("done")
	if failed > 0 {
		return 1
	}
	return 0
}
