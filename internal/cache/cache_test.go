package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradingCore/internal/model"
)

func TestBuilder_PutAndSeal(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Put(model.TickerCacheEntry{
		Ticker:           "PETR4",
		Analyses:         []model.Analysis{{Ticker: "PETR4", Title: "a"}, {Ticker: "PETR4", Title: "b"}},
		ExecutiveSummary: "resumo",
	}))
	require.NoError(t, b.Put(model.TickerCacheEntry{Ticker: "VALE3"}))
	require.NoError(t, b.PutQuote(model.Quote{Ticker: "PETR4", ClosePrice: 38.5, PercentChange: 1.2, OK: true}))
	require.NoError(t, b.PutQuote(model.Quote{Ticker: "VALE3"}))

	s := b.Seal()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.TotalAnalyses())
	assert.Equal(t, 1, s.TickersWithNews())
	assert.Equal(t, []model.Ticker{"PETR4", "VALE3"}, s.Tickers())
	assert.Equal(t, "resumo", s.Lookup("PETR4").ExecutiveSummary)

	vale := s.Lookup("VALE3")
	assert.NotNil(t, vale.Analyses)
	assert.Empty(t, vale.Analyses)

	q, ok := s.Quote("PETR4")
	assert.True(t, ok)
	assert.Equal(t, 38.5, q.ClosePrice)
	_, ok = s.Quote("VALE3")
	assert.False(t, ok, "failed quotes are hidden")
	_, ok = s.Quote("ITUB4")
	assert.False(t, ok)
}

func TestBuilder_DuplicateTicker(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Put(model.TickerCacheEntry{Ticker: "PETR4", ExecutiveSummary: "first"}))
	err := b.Put(model.TickerCacheEntry{Ticker: "PETR4", ExecutiveSummary: "second"})
	assert.True(t, errors.Is(err, ErrDuplicateTicker))
	assert.Equal(t, "first", b.Seal().Lookup("PETR4").ExecutiveSummary)
}

func TestBuilder_WritesAfterSeal(t *testing.T) {
	b := NewBuilder()
	s := b.Seal()
	assert.ErrorIs(t, b.Put(model.TickerCacheEntry{Ticker: "PETR4"}), ErrSealed)
	assert.ErrorIs(t, b.PutQuote(model.Quote{Ticker: "PETR4", OK: true}), ErrSealed)
	assert.Equal(t, 0, s.Len())
}

func TestSealed_LookupDefault(t *testing.T) {
	s := NewBuilder().Seal()
	e := s.Lookup("XPTO3")
	assert.Equal(t, model.Ticker("XPTO3"), e.Ticker)
	assert.Equal(t, []model.Analysis{}, e.Analyses)
	assert.Empty(t, e.ExecutiveSummary)
	assert.Nil(t, e.Consolidated)
}

func TestBuilder_ConcurrentPuts(t *testing.T) {
	b := NewBuilder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Put(model.TickerCacheEntry{Ticker: model.Ticker(fmt.Sprintf("T%02d", i))}))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, b.Seal().Len())
}
