package contextstore

import (
	"context"
	"errors"
	"strings"

	"github.com/phuslu/log"

	"TradingCore/internal/model"
)

// Generator synthesizes a fresh strategic context.
type Generator interface {
	GenerateContext(ctx context.Context, ticker model.Ticker) (string, error)
}

// Resolver returns the stored context for a ticker, generating and persisting
// it on first use.
type Resolver struct {
	Store     Store
	Generator Generator
}

func NewResolver(store Store, gen Generator) *Resolver {
	return &Resolver{Store: store, Generator: gen}
}

// Ensure loads the stored context or generates and saves a new one. A non-nil
// error only reports a degraded, empty context; callers continue without it.
func (r *Resolver) Ensure(ctx context.Context, ticker model.Ticker) (string, error) {
	text, err := r.Store.Load(ctx, ticker)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Warn().Str("ticker", string(ticker)).Err(err).Msg("context load failed, regenerating")
	}
	return r.Refresh(ctx, ticker)
}

// Refresh regenerates the context unconditionally and persists it.
func (r *Resolver) Refresh(ctx context.Context, ticker model.Ticker) (string, error) {
	log.Info().Str("ticker", string(ticker)).Msg("generating strategic context")
	text, err := r.Generator.GenerateContext(ctx, ticker)
	if err != nil {
		log.Error().Str("ticker", string(ticker)).Err(err).Msg("context generation failed")
		return "", err
	}
	text = strings.TrimSpace(text)
	if err := r.Store.Save(ctx, ticker, text); err != nil {
		// The generated text is still usable for this run.
		log.Warn().Str("ticker", string(ticker)).Err(err).Msg("context save failed")
		return text, nil
	}
	log.Info().Str("ticker", string(ticker)).Int("chars", len(text)).Msg("strategic context saved")
	return text, nil
}
