package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradingCore/internal/collector"
	"TradingCore/internal/config"
	"TradingCore/internal/contextstore"
	"TradingCore/internal/subscriber"
)

func TestNewNewsFetcher(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.APIKey = "k"

	_, ok := NewNewsFetcher(cfg).(*collector.EventRegistryFetcher)
	assert.True(t, ok, "event registry is the default provider")

	cfg.News.Provider = "finnhub"
	_, ok = NewNewsFetcher(cfg).(*collector.FinnhubFetcher)
	assert.True(t, ok)
}

func TestNewContextStore_File(t *testing.T) {
	cfg := &config.Config{}
	cfg.Context.Backend = "file"
	cfg.Context.Dir = t.TempDir()

	store, closer, err := NewContextStore(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())

	fs, ok := store.(*contextstore.FileStore)
	require.True(t, ok)
	assert.Equal(t, cfg.Context.Dir, fs.Dir)
}

func TestNewContextStore_BadRedisURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Context.Backend = "redis"
	cfg.Context.RedisURL = "not a url"

	_, _, err := NewContextStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewSubscriberSource_CSV(t *testing.T) {
	cfg := &config.Config{}
	cfg.Subscribers.Source = "csv"
	cfg.Subscribers.CSVPath = "subs.csv"
	cfg.Subscribers.EmailColumn = "Email"

	src, err := NewSubscriberSource(context.Background(), cfg)
	require.NoError(t, err)
	csv, ok := src.(*subscriber.CSVSource)
	require.True(t, ok)
	assert.Equal(t, "subs.csv", csv.Path)
	assert.Equal(t, "Email", csv.Columns.Email)
}

func TestNewScorer_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "cohere"

	_, err := NewScorer(context.Background(), cfg)
	assert.Error(t, err)
}
