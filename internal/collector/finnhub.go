package collector

import (
	"context"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"TradingCore/internal/model"
)

// FinnhubFetcher implements NewsFetcher using Finnhub's company-news endpoint.
type FinnhubFetcher struct {
	client *finnhub.DefaultApiService
	Suffix string // exchange suffix appended to local symbols, e.g. ".SA"
}

func NewFinnhubFetcher(apiKey, suffix string) *FinnhubFetcher {
	return newFinnhubFetcher(apiKey, suffix, "")
}

// newFinnhubFetcher points the SDK at serverURL when it is non-empty.
func newFinnhubFetcher(apiKey, suffix, serverURL string) *FinnhubFetcher {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if serverURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: serverURL}}
	}
	return &FinnhubFetcher{client: finnhub.NewAPIClient(cfg).DefaultApi, Suffix: suffix}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

func (f *FinnhubFetcher) FetchNews(ctx context.Context, ticker model.Ticker, window model.Window, maxItems int) ([]model.NewsItem, error) {
	if maxItems <= 0 {
		return nil, nil
	}
	res, _, err := f.client.CompanyNews(ctx).
		Symbol(withSuffix(ticker, f.Suffix)).
		From(window.StartDate()).
		To(window.EndDate()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub company news: %w", err)
	}

	items := make([]model.NewsItem, 0, len(res))
	for _, n := range res {
		var item model.NewsItem
		if n.Headline != nil {
			item.Title = *n.Headline
		}
		if n.Summary != nil {
			item.Body = FlattenHTML(*n.Summary)
		}
		if n.Url != nil {
			item.URL = *n.Url
		}
		if n.Source != nil {
			item.Source = *n.Source
		}
		if n.Datetime != nil {
			item.PublishedAt = time.Unix(*n.Datetime, 0)
		}
		items = append(items, item)
		if len(items) >= maxItems {
			break
		}
	}
	return items, nil
}
