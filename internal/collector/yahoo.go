package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/phuslu/log"

	"TradingCore/internal/model"
)

const defaultYahooURL = "https://query1.finance.yahoo.com"

// YahooQuoteFetcher implements QuoteFetcher using the Yahoo Finance chart API.
type YahooQuoteFetcher struct {
	BaseURL string
	Suffix  string // exchange suffix, ".SA" for B3
	Client  *http.Client
}

// NewYahooQuoteFetcher creates a new Yahoo Finance quote fetcher.
func NewYahooQuoteFetcher(suffix, proxyURL string) *YahooQuoteFetcher {
	return &YahooQuoteFetcher{
		BaseURL: defaultYahooURL,
		Suffix:  suffix,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *YahooQuoteFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var errInsufficientData = errors.New("yahoo: insufficient data")

// FetchQuote returns the last close and its variation against the previous
// session. A five-day range covers weekends and holidays.
func (f *YahooQuoteFetcher) FetchQuote(ctx context.Context, ticker model.Ticker) model.Quote {
	q := model.Quote{Ticker: ticker}
	bars, err := f.fetchCloses(ctx, withSuffix(ticker, f.Suffix), "5d")
	if err == nil && len(bars) < 2 {
		err = errInsufficientData
	}
	if err != nil {
		log.Warn().Str("ticker", string(ticker)).Err(err).Msg("price fetch failed")
		return q
	}

	last, prev := bars[len(bars)-1].Close, bars[len(bars)-2].Close
	if prev == 0 {
		log.Warn().Str("ticker", string(ticker)).Msg("previous close is zero")
		return q
	}
	q.ClosePrice = last
	q.PercentChange = (last - prev) / prev * 100
	q.OK = true
	log.Debug().Str("ticker", string(ticker)).Float64("close", last).Float64("change_pct", q.PercentChange).Msg("price fetched")
	return q
}

func (f *YahooQuoteFetcher) fetchCloses(ctx context.Context, symbol, rng string) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(symbol), rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errInsufficientData
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] == 0 {
			continue // null bars on holidays
		}
		bars = append(bars, model.Bar{Time: time.Unix(ts, 0), Close: *closes[i]})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
