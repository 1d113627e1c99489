// Package cache holds per-ticker analysis results for the lifetime of one run.
//
// A Builder is filled during the analysis phase and sealed exactly once; the
// resulting Sealed view is the only thing the distribution phase can see.
package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"TradingCore/internal/model"
)

var (
	ErrSealed          = errors.New("cache: sealed")
	ErrDuplicateTicker = errors.New("cache: duplicate ticker")
)

// Builder is the write-capable cache used while analyzing tickers.
type Builder struct {
	mu      sync.Mutex
	entries map[model.Ticker]model.TickerCacheEntry
	quotes  map[model.Ticker]model.Quote
	sealed  bool
}

func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[model.Ticker]model.TickerCacheEntry),
		quotes:  make(map[model.Ticker]model.Quote),
	}
}

// Put stores the entry for entry.Ticker. Each ticker is written once.
func (b *Builder) Put(entry model.TickerCacheEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	if _, ok := b.entries[entry.Ticker]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTicker, entry.Ticker)
	}
	if entry.Analyses == nil {
		entry.Analyses = []model.Analysis{}
	}
	b.entries[entry.Ticker] = entry
	return nil
}

// PutQuote stores the price quote for q.Ticker. A later quote replaces an
// earlier one.
func (b *Builder) PutQuote(q model.Quote) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrSealed
	}
	b.quotes[q.Ticker] = q
	return nil
}

// Seal ends the write phase. The builder rejects every write afterwards and
// the returned view shares no mutable state with it.
func (b *Builder) Seal() *Sealed {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sealed = true
	s := &Sealed{
		entries: make(map[model.Ticker]model.TickerCacheEntry, len(b.entries)),
		quotes:  make(map[model.Ticker]model.Quote, len(b.quotes)),
	}
	for t, e := range b.entries {
		s.entries[t] = e
	}
	for t, q := range b.quotes {
		s.quotes[t] = q
	}
	return s
}

// Sealed is the read-only cache used while distributing.
type Sealed struct {
	entries map[model.Ticker]model.TickerCacheEntry
	quotes  map[model.Ticker]model.Quote
}

// Lookup returns the entry for t, or an empty entry when t was never analyzed.
func (s *Sealed) Lookup(t model.Ticker) model.TickerCacheEntry {
	if e, ok := s.entries[t]; ok {
		return e
	}
	return model.TickerCacheEntry{Ticker: t, Analyses: []model.Analysis{}}
}

// Quote returns the stored quote for t when one was fetched successfully.
func (s *Sealed) Quote(t model.Ticker) (model.Quote, bool) {
	q, ok := s.quotes[t]
	if !ok || !q.OK {
		return model.Quote{}, false
	}
	return q, true
}

// Tickers lists cached tickers in sorted order.
func (s *Sealed) Tickers() []model.Ticker {
	out := make([]model.Ticker, 0, len(s.entries))
	for t := range s.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Sealed) Len() int { return len(s.entries) }

func (s *Sealed) TotalAnalyses() int {
	n := 0
	for _, e := range s.entries {
		n += len(e.Analyses)
	}
	return n
}

func (s *Sealed) TickersWithNews() int {
	n := 0
	for _, e := range s.entries {
		if len(e.Analyses) > 0 {
			n++
		}
	}
	return n
}
