package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradingCore/internal/collector"
	"TradingCore/internal/model"
	"TradingCore/internal/strategy"
)

func ptr(v float64) *float64 { return &v }

// fakeScorer derives each analysis from the item body: "score|sentiment|relevant".
type fakeScorer struct {
	mu            sync.Mutex
	classifyCalls int
	compactCalls  int
	consCalls     int
	compactErr    error
	consErr       error
	panicOn       string
	contexts      []string
}

func (f *fakeScorer) Classify(_ context.Context, t model.Ticker, item model.NewsItem, strategic string) (model.Analysis, error) {
	f.mu.Lock()
	f.classifyCalls++
	f.contexts = append(f.contexts, strategic)
	f.mu.Unlock()

	if item.Body == f.panicOn && f.panicOn != "" {
		panic("boom")
	}
	if item.Body == "malformed" {
		return model.Analysis{}, errors.New("decode: not a json object")
	}
	a := model.Analysis{Ticker: t, Title: item.Title, URL: item.URL, Summary: "resumo " + item.Title}
	switch item.Body {
	case "hi-strong":
		a.Relevant, a.RelevanceScore, a.Sentiment = true, ptr(8), 0.9
	case "hi-weak":
		a.Relevant, a.RelevanceScore, a.Sentiment = true, ptr(8), 0.1
	case "lo-strong":
		a.Relevant, a.RelevanceScore, a.Sentiment = true, ptr(3), 0.9
	default:
		a.Relevant, a.Sentiment = false, 0
	}
	return a, nil
}

func (f *fakeScorer) Compact(_ context.Context, _ model.Ticker, summaries []string, _ string) (string, error) {
	f.mu.Lock()
	f.compactCalls++
	f.mu.Unlock()
	if f.compactErr != nil {
		return "", f.compactErr
	}
	return "executivo: " + strings.Join(summaries, "; "), nil
}

func (f *fakeScorer) Consolidate(_ context.Context, _ model.Ticker, _ []model.Analysis, _ string) (*model.Consolidated, error) {
	f.mu.Lock()
	f.consCalls++
	f.mu.Unlock()
	if f.consErr != nil {
		return nil, f.consErr
	}
	return &model.Consolidated{Positive: "bom", Negative: "ruim"}, nil
}

type fakeContexts struct {
	text string
	err  error
}

func (f *fakeContexts) Ensure(context.Context, model.Ticker) (string, error) { return f.text, f.err }

func news(bodies ...string) []model.NewsItem {
	out := make([]model.NewsItem, len(bodies))
	for i, b := range bodies {
		out[i] = model.NewsItem{Title: b, Body: b, URL: "https://n/" + b}
	}
	return out
}

func window() model.Window {
	return model.NewWindow(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 24*time.Hour, time.UTC)
}

func newAnalyzer(items map[model.Ticker][]model.NewsItem, s *fakeScorer, opts Options) *Analyzer {
	if opts.Selection.TopN == 0 {
		opts.Selection = strategy.Selection{Ranking: strategy.ByScore, TopN: 5}
	}
	if opts.MaxNews == 0 {
		opts.MaxNews = 20
	}
	return New(&collector.MockNewsFetcher{Items: items}, s, nil, opts)
}

func titles(as []model.Analysis) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Title
	}
	return out
}

func TestAnalyze_RanksAndSummarizes(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{
		"PETR4": news("lo-strong", "irrelevant", "hi-weak", "hi-strong"),
	}, s, Options{})

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, model.OutcomeOK, res.Outcome.Status)
	assert.Equal(t, StageCached, res.Outcome.Stage)
	assert.Equal(t, []string{"hi-strong", "hi-weak", "lo-strong"}, titles(res.Entry.Analyses))
	assert.Equal(t, "executivo: resumo hi-strong; resumo hi-weak; resumo lo-strong", res.Entry.ExecutiveSummary)
	assert.Nil(t, res.Entry.Consolidated)
	assert.Equal(t, 4, s.classifyCalls)
	assert.Equal(t, 1, s.compactCalls)
	assert.Equal(t, 0, s.consCalls)
}

func TestAnalyze_NoNewsNeverCompacts(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(nil, s, Options{Consolidated: true})

	res := a.Analyze(context.Background(), "VALE3", window())
	assert.Equal(t, model.OutcomeOK, res.Outcome.Status)
	assert.Equal(t, StageCached, res.Outcome.Stage)
	assert.Empty(t, res.Entry.Analyses)
	assert.NotNil(t, res.Entry.Analyses)
	assert.Empty(t, res.Entry.ExecutiveSummary)
	assert.Zero(t, s.classifyCalls+s.compactCalls+s.consCalls)
}

func TestAnalyze_NothingRelevantNeverCompacts(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"ITUB4": news("irrelevant", "other")}, s, Options{})

	res := a.Analyze(context.Background(), "ITUB4", window())
	assert.Equal(t, model.OutcomeOK, res.Outcome.Status)
	assert.Empty(t, res.Entry.Analyses)
	assert.Empty(t, res.Entry.ExecutiveSummary)
	assert.Equal(t, 0, s.compactCalls)
}

func TestAnalyze_SkipsFailingItems(t *testing.T) {
	s := &fakeScorer{}
	items := news("hi-strong", "malformed", "hi-weak")
	items = append(items, model.NewsItem{Title: "sem corpo", Body: "   "})
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"BBAS3": items}, s, Options{})

	res := a.Analyze(context.Background(), "BBAS3", window())
	assert.Equal(t, model.OutcomeOK, res.Outcome.Status)
	assert.Equal(t, []string{"hi-strong", "hi-weak"}, titles(res.Entry.Analyses))
	assert.Equal(t, 3, s.classifyCalls, "empty bodies are never scored")
}

func TestAnalyze_AllItemsFailDegrades(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"BBAS3": news("malformed", "malformed")}, s, Options{})

	res := a.Analyze(context.Background(), "BBAS3", window())
	assert.Equal(t, model.OutcomeDegraded, res.Outcome.Status)
	assert.Empty(t, res.Entry.Analyses)
	assert.Equal(t, 0, s.compactCalls)
}

func TestAnalyze_CompactFailureUsesFallback(t *testing.T) {
	s := &fakeScorer{compactErr: errors.New("timeout")}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong")}, s, Options{Consolidated: true})

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, model.OutcomeDegraded, res.Outcome.Status)
	assert.Equal(t, StageCached, res.Outcome.Stage)
	assert.Equal(t, model.SummaryUnavailable, res.Entry.ExecutiveSummary)
	require.Len(t, res.Entry.Analyses, 1)
	require.NotNil(t, res.Entry.Consolidated, "consolidation is independent of compaction")
	assert.Equal(t, "bom", res.Entry.Consolidated.Positive)
}

func TestAnalyze_ConsolidateFailureKeepsSummary(t *testing.T) {
	s := &fakeScorer{consErr: errors.New("bad json")}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong")}, s, Options{Consolidated: true})

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, model.OutcomeDegraded, res.Outcome.Status)
	assert.Nil(t, res.Entry.Consolidated)
	assert.Equal(t, "executivo: resumo hi-strong", res.Entry.ExecutiveSummary)
}

func TestAnalyze_FetchErrorYieldsEmptyEntry(t *testing.T) {
	s := &fakeScorer{}
	a := New(&collector.MockNewsFetcher{Err: errors.New("503")}, s, nil, Options{MaxNews: 5})

	res := a.Analyze(context.Background(), "WEGE3", window())
	assert.Equal(t, model.OutcomeFailed, res.Outcome.Status)
	assert.Equal(t, StagePending, res.Outcome.Stage)
	assert.Equal(t, model.Ticker("WEGE3"), res.Entry.Ticker)
	assert.Empty(t, res.Entry.Analyses)
	assert.Zero(t, s.classifyCalls)
}

func TestAnalyze_RecoversPanic(t *testing.T) {
	s := &fakeScorer{panicOn: "hi-weak"}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong", "hi-weak")}, s, Options{})

	var res Result
	require.NotPanics(t, func() { res = a.Analyze(context.Background(), "PETR4", window()) })
	assert.Equal(t, model.OutcomeFailed, res.Outcome.Status)
	assert.Equal(t, StageNewsFetched, res.Outcome.Stage)
	assert.Empty(t, res.Entry.Analyses)
	assert.Empty(t, res.Entry.ExecutiveSummary)
}

func TestAnalyze_StrategicContext(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong", "hi-weak")}, s, Options{})
	a.Contexts = &fakeContexts{text: "Petrobras é uma petroleira."}

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, model.OutcomeOK, res.Outcome.Status)
	assert.Equal(t, "Petrobras é uma petroleira.", res.Entry.StrategicContext)
	assert.Equal(t, []string{"Petrobras é uma petroleira.", "Petrobras é uma petroleira."}, s.contexts)
}

func TestAnalyze_ContextFailureDoesNotBlock(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong")}, s, Options{})
	a.Contexts = &fakeContexts{err: errors.New("llm down")}

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, model.OutcomeDegraded, res.Outcome.Status)
	assert.Empty(t, res.Entry.StrategicContext)
	assert.Len(t, res.Entry.Analyses, 1)
}

func TestAnalyze_TopNAndMaxNews(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{
		"PETR4": news("hi-strong", "hi-weak", "lo-strong", "hi-strong"),
	}, s, Options{MaxNews: 3, Selection: strategy.Selection{Ranking: strategy.ByScore, TopN: 2}})

	res := a.Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, 3, s.classifyCalls)
	assert.Equal(t, []string{"hi-strong", "hi-weak"}, titles(res.Entry.Analyses))
}

func TestAnalyze_Idempotent(t *testing.T) {
	items := map[model.Ticker][]model.NewsItem{"PETR4": news("lo-strong", "hi-weak", "hi-strong")}
	first := newAnalyzer(items, &fakeScorer{}, Options{Consolidated: true}).Analyze(context.Background(), "PETR4", window())
	second := newAnalyzer(items, &fakeScorer{}, Options{Consolidated: true}).Analyze(context.Background(), "PETR4", window())
	assert.Equal(t, first, second)
}

func TestAnalyze_CancelledContextStopsScoring(t *testing.T) {
	s := &fakeScorer{}
	a := newAnalyzer(map[model.Ticker][]model.NewsItem{"PETR4": news("hi-strong", "hi-weak")}, s, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.Analyze(ctx, "PETR4", window())
	assert.Equal(t, 0, s.classifyCalls)
	assert.Equal(t, model.OutcomeDegraded, res.Outcome.Status)
	assert.Empty(t, res.Entry.Analyses)
}
