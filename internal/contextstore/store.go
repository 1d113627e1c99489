// Package contextstore keeps the per-ticker strategic briefings that bias the
// scorer toward material news.
package contextstore

import (
	"context"
	"errors"

	"TradingCore/internal/model"
)

// ErrNotFound is returned by Load when no context exists for a ticker.
var ErrNotFound = errors.New("context not found")

// Store persists one text blob per ticker. Save overwrites.
type Store interface {
	Load(ctx context.Context, ticker model.Ticker) (string, error)
	Save(ctx context.Context, ticker model.Ticker, text string) error
}
