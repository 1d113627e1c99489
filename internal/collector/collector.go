package collector

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"TradingCore/internal/model"
)

// MockNewsFetcher returns fixed news for development and testing.
type MockNewsFetcher struct {
	Items map[model.Ticker][]model.NewsItem
	Err   error
}

func (m *MockNewsFetcher) Name() string { return "mock" }

func (m *MockNewsFetcher) FetchNews(_ context.Context, ticker model.Ticker, _ model.Window, maxItems int) ([]model.NewsItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	items := m.Items[ticker]
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// MockQuoteFetcher returns a fixed price for every ticker.
type MockQuoteFetcher struct {
	Price  float64
	Change float64
}

func (m *MockQuoteFetcher) Name() string { return "mock" }

func (m *MockQuoteFetcher) FetchQuote(_ context.Context, ticker model.Ticker) model.Quote {
	if m.Price == 0 {
		return model.Quote{Ticker: ticker}
	}
	return model.Quote{Ticker: ticker, ClosePrice: m.Price, PercentChange: m.Change, OK: true}
}

// Collector gathers quotes for a ticker set ahead of distribution.
type Collector struct {
	Fetcher QuoteFetcher
	Timeout time.Duration
}

// NewCollector creates a new Collector.
func NewCollector(fetcher QuoteFetcher, timeout time.Duration) *Collector {
	return &Collector{Fetcher: fetcher, Timeout: timeout}
}

// Collect fetches one quote per ticker in order. Individual failures yield a
// quote with OK=false and never abort the batch.
func (c *Collector) Collect(ctx context.Context, tickers []model.Ticker) map[model.Ticker]model.Quote {
	quotes := make(map[model.Ticker]model.Quote, len(tickers))
	if len(tickers) == 0 {
		return quotes
	}
	ok := 0
	for _, t := range tickers {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		}
		q := c.Fetcher.FetchQuote(callCtx, t)
		cancel()
		q.Ticker = t
		quotes[t] = q
		if q.OK {
			ok++
		}
	}
	log.Info().Str("source", c.Fetcher.Name()).Int("ok", ok).Int("total", len(tickers)).Msg("prices collected")
	return quotes
}
