package collector

import (
	"context"

	"TradingCore/internal/model"
)

// NewsFetcher retrieves raw news items mentioning a ticker within a window.
// An empty result is not an error.
type NewsFetcher interface {
	FetchNews(ctx context.Context, ticker model.Ticker, window model.Window, maxItems int) ([]model.NewsItem, error)
	Name() string
}

// QuoteFetcher retrieves the latest close and daily variation for a ticker.
// Failures are reported through Quote.OK rather than an error.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker model.Ticker) model.Quote
	Name() string
}
