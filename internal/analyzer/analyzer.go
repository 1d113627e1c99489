// Package analyzer turns the news of one ticker into a cache entry.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"TradingCore/internal/collector"
	"TradingCore/internal/model"
	"TradingCore/internal/strategy"
)

// Stages of a ticker analysis, in order.
const (
	StagePending     = "PENDING"
	StageNewsFetched = "NEWS_FETCHED"
	StageScored      = "SCORED"
	StageFiltered    = "FILTERED"
	StageSummarized  = "SUMMARIZED"
	StageCached      = "CACHED"
)

var errNoneScored = errors.New("no item could be scored")

// Scorer is the subset of llm.Scorer the analyzer calls.
type Scorer interface {
	Classify(ctx context.Context, ticker model.Ticker, item model.NewsItem, strategic string) (model.Analysis, error)
	Compact(ctx context.Context, ticker model.Ticker, summaries []string, strategic string) (string, error)
	Consolidate(ctx context.Context, ticker model.Ticker, analyses []model.Analysis, strategic string) (*model.Consolidated, error)
}

// ContextResolver supplies the strategic context of a ticker.
type ContextResolver interface {
	Ensure(ctx context.Context, ticker model.Ticker) (string, error)
}

// Options tune one Analyzer.
type Options struct {
	MaxNews      int
	Selection    strategy.Selection
	Consolidated bool
	CallTimeout  time.Duration
}

// Result is the entry to cache plus how its production went.
type Result struct {
	Entry   model.TickerCacheEntry
	Outcome model.Outcome
}

// Analyzer runs the per-ticker stage sequence. Contexts is optional.
type Analyzer struct {
	News     collector.NewsFetcher
	Scorer   Scorer
	Contexts ContextResolver
	Opts     Options
}

func New(news collector.NewsFetcher, scorer Scorer, contexts ContextResolver, opts Options) *Analyzer {
	return &Analyzer{News: news, Scorer: scorer, Contexts: contexts, Opts: opts}
}

func emptyEntry(t model.Ticker) model.TickerCacheEntry {
	return model.TickerCacheEntry{Ticker: t, Analyses: []model.Analysis{}}
}

func (a *Analyzer) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Opts.CallTimeout)
}

// Analyze never returns an error: every failure is folded into the outcome and
// the entry is always safe to cache.
func (a *Analyzer) Analyze(ctx context.Context, t model.Ticker, w model.Window) (res Result) {
	stage := StagePending
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("ticker", string(t)).Str("stage", stage).Interface("panic", r).Msg("ticker analysis panicked")
			res = Result{Entry: emptyEntry(t), Outcome: model.Failed(stage, fmt.Errorf("panic: %v", r))}
		}
	}()

	entry := emptyEntry(t)
	out := model.OK(stage)

	fctx, cancel := a.callCtx(ctx)
	items, err := a.News.FetchNews(fctx, t, w, a.Opts.MaxNews)
	cancel()
	if err != nil {
		log.Warn().Str("ticker", string(t)).Err(err).Msg("news fetch failed")
		return Result{Entry: entry, Outcome: model.Failed(stage, fmt.Errorf("fetch news: %w", err))}
	}
	if len(items) == 0 {
		log.Info().Str("ticker", string(t)).Msg("no news in window")
		out.Stage = StageCached
		return Result{Entry: entry, Outcome: out}
	}
	stage = StageNewsFetched
	log.Info().Str("ticker", string(t)).Int("news", len(items)).Msg("news fetched")

	if a.Contexts != nil {
		cctx, cancel := a.callCtx(ctx)
		text, err := a.Contexts.Ensure(cctx, t)
		cancel()
		if err != nil {
			out = out.Degrade(fmt.Errorf("strategic context: %w", err))
		}
		entry.StrategicContext = text
	}

	scored := make([]model.Analysis, 0, len(items))
	attempted := 0
	for i, item := range items {
		if ctx.Err() != nil {
			out = out.Degrade(ctx.Err())
			break
		}
		if strings.TrimSpace(item.Body) == "" {
			continue
		}
		attempted++
		sctx, cancel := a.callCtx(ctx)
		an, err := a.Scorer.Classify(sctx, t, item, entry.StrategicContext)
		cancel()
		if err != nil {
			log.Warn().Str("ticker", string(t)).Int("item", i).Err(err).Msg("news item skipped")
			continue
		}
		scored = append(scored, an)
	}
	if attempted > 0 && len(scored) == 0 {
		out = out.Degrade(errNoneScored)
	}
	stage = StageScored

	selected := a.Opts.Selection.Select(scored)
	stage = StageFiltered
	log.Info().Str("ticker", string(t)).Int("scored", len(scored)).Int("selected", len(selected)).Msg("news ranked")
	if len(selected) == 0 {
		out.Stage = StageCached
		return Result{Entry: entry, Outcome: out}
	}
	entry.Analyses = selected

	summaries := make([]string, len(selected))
	for i, an := range selected {
		summaries[i] = an.Summary
	}
	cctx, cancel := a.callCtx(ctx)
	summary, err := a.Scorer.Compact(cctx, t, summaries, entry.StrategicContext)
	cancel()
	if err != nil || strings.TrimSpace(summary) == "" {
		if err == nil {
			err = errors.New("empty summary")
		}
		log.Warn().Str("ticker", string(t)).Err(err).Msg("executive summary unavailable")
		summary = model.SummaryUnavailable
		out = out.Degrade(fmt.Errorf("compact: %w", err))
	}
	entry.ExecutiveSummary = summary
	stage = StageSummarized

	if a.Opts.Consolidated {
		cctx, cancel := a.callCtx(ctx)
		cons, err := a.Scorer.Consolidate(cctx, t, selected, entry.StrategicContext)
		cancel()
		if err != nil {
			log.Warn().Str("ticker", string(t)).Err(err).Msg("consolidated analysis unavailable")
			out = out.Degrade(fmt.Errorf("consolidate: %w", err))
		} else if !cons.Empty() {
			entry.Consolidated = cons
		}
	}

	out.Stage = StageCached
	return Result{Entry: entry, Outcome: out}
}
