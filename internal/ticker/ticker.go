// Package ticker turns the free-form ticker field of a subscriber into
// normalized symbols.
package ticker

import (
	"sort"
	"strings"

	"TradingCore/internal/model"
)

// Parse splits a comma-separated ticker field, trimming and upper-casing each
// token and dropping empty ones. It never fails.
func Parse(raw string) []model.Ticker {
	tickers := make([]model.Ticker, 0)
	if strings.TrimSpace(raw) == "" {
		return tickers
	}
	for _, tok := range strings.Split(raw, ",") {
		if t := model.NormalizeTicker(tok); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// Unique returns the sorted union of all subscribers' tickers.
func Unique(subs []model.Subscriber) []model.Ticker {
	seen := make(map[model.Ticker]struct{})
	for _, s := range subs {
		for _, t := range Parse(s.RawTickers) {
			seen[t] = struct{}{}
		}
	}
	out := make([]model.Ticker, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
