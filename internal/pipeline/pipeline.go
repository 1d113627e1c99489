// Package pipeline runs one two-phase digest: every unique ticker is analyzed
// once into a cache, the cache is sealed, and every subscriber is served from
// the sealed cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"TradingCore/internal/analyzer"
	"TradingCore/internal/cache"
	"TradingCore/internal/distributor"
	"TradingCore/internal/model"
	"TradingCore/internal/notifier"
	"TradingCore/internal/recorder"
	"TradingCore/internal/subscriber"
	"TradingCore/internal/ticker"
)

var (
	ErrNoSubscribers = errors.New("no subscribers found")
	ErrNoTickers     = errors.New("no tickers found in any subscriber")
)

// Analyzer produces the cache entry of one ticker.
type Analyzer interface {
	Analyze(ctx context.Context, t model.Ticker, w model.Window) analyzer.Result
}

// Distributor serves one subscriber from the sealed cache.
type Distributor interface {
	Deliver(ctx context.Context, sub model.Subscriber, c *cache.Sealed) distributor.Delivery
}

// QuoteCollector fetches prices for the whole ticker set.
type QuoteCollector interface {
	Collect(ctx context.Context, tickers []model.Ticker) map[model.Ticker]model.Quote
}

// OperatorNotifier receives the final tally of each run.
type OperatorNotifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Runner wires the collaborators of a run. Quotes and Operator are optional.
type Runner struct {
	Source      subscriber.Source
	Analyzer    Analyzer
	Quotes      QuoteCollector
	Distributor Distributor
	Recorder    recorder.Recorder
	Operator    OperatorNotifier

	Workers  int
	Lookback time.Duration
	Location *time.Location
	Brand    string

	Now   func() time.Time
	NewID func() string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

func (r *Runner) recorder() recorder.Recorder {
	if r.Recorder == nil {
		return recorder.NewNoopRecorder()
	}
	return r.Recorder
}

// Run executes one digest. ErrNoSubscribers and ErrNoTickers end the run
// early without sending anything; every other failure is scoped to a ticker
// or a subscriber and shows up in the returned stats.
func (r *Runner) Run(ctx context.Context) (model.RunStats, error) {
	stats := model.RunStats{StartedAt: r.now()}
	if r.NewID != nil {
		stats.RunID = r.NewID()
	} else {
		stats.RunID = uuid.NewString()
	}
	rec := r.recorder()

	w := model.NewWindow(stats.StartedAt, r.Lookback, r.Location)
	log.Info().Str("run", stats.RunID).Str("from", w.StartDate()).Str("to", w.EndDate()).Msg("run started")

	subs, err := r.Source.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load subscribers failed")
		subs = nil
	}
	if len(subs) == 0 {
		log.Warn().Msg("no subscribers found")
		return stats, ErrNoSubscribers
	}
	stats.TotalSubscribers = len(subs)
	log.Info().Int("subscribers", len(subs)).Msg("subscribers loaded")

	tickers := ticker.Unique(subs)
	if len(tickers) == 0 {
		log.Warn().Msg("no tickers found in any subscriber")
		return stats, ErrNoTickers
	}
	stats.UniqueTickers = len(tickers)
	log.Info().Int("tickers", len(tickers)).Strs("symbols", tickerStrings(tickers)).Msg("unique tickers identified")

	sealed, err := r.buildCache(ctx, stats.RunID, tickers, w, rec)
	if err != nil {
		return stats, err
	}
	stats.TickersWithNews = sealed.TickersWithNews()
	log.Info().Int("tickers", sealed.Len()).Int("with_news", stats.TickersWithNews).
		Int("analyses", sealed.TotalAnalyses()).Msg("analysis phase complete, cache sealed")

	r.distribute(ctx, stats.RunID, subs, sealed, rec, &stats)
	stats.FinishedAt = r.now()

	log.Info().Str("run", stats.RunID).
		Int("tickers", stats.UniqueTickers).
		Int("tickers_with_news", stats.TickersWithNews).
		Int("subscribers", stats.TotalSubscribers).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Int("news_delivered", stats.NewsDelivered).
		Float64("avg_news", stats.AverageNews()).
		Msg("run finished")

	if err := rec.RecordRun(&stats); err != nil {
		log.Error().Err(err).Msg("record run failed")
	}
	if r.Operator != nil {
		if err := r.Operator.SendWithRetry(ctx, notifier.FormatRunReport(r.Brand, stats), 3); err != nil {
			log.Error().Err(err).Msg("operator notification failed")
		}
	}
	return stats, ctx.Err()
}

// buildCache analyzes every ticker exactly once, adds quotes and seals. The
// seal happens only after all workers are done.
func (r *Runner) buildCache(ctx context.Context, runID string, tickers []model.Ticker, w model.Window, rec recorder.Recorder) (*cache.Sealed, error) {
	b := cache.NewBuilder()

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, t := range tickers {
		if ctx.Err() != nil {
			log.Warn().Int("skipped", len(tickers)-i).Msg("run cancelled, skipping remaining tickers")
			break
		}
		g.Go(func() error {
			log.Info().Str("ticker", string(t)).Int("n", i+1).Int("of", len(tickers)).Msg("analyzing ticker")
			res := r.Analyzer.Analyze(ctx, t, w)
			if err := b.Put(res.Entry); err != nil {
				return err
			}
			if res.Outcome.Status != model.OutcomeOK {
				log.Warn().Str("ticker", string(t)).Str("outcome", res.Outcome.String()).Msg("ticker analysis incomplete")
			}
			if err := rec.RecordTicker(&recorder.TickerRecord{
				RunID:    runID,
				Ticker:   t,
				Outcome:  res.Outcome,
				Analyses: len(res.Entry.Analyses),
				Summary:  res.Entry.ExecutiveSummary,
			}); err != nil {
				log.Error().Err(err).Str("ticker", string(t)).Msg("record ticker failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}

	if r.Quotes != nil && ctx.Err() == nil {
		for _, q := range r.Quotes.Collect(ctx, tickers) {
			if err := b.PutQuote(q); err != nil {
				return nil, fmt.Errorf("store quote: %w", err)
			}
		}
	}
	return b.Seal(), nil
}

// distribute serves every subscriber from the sealed cache.
func (r *Runner) distribute(ctx context.Context, runID string, subs []model.Subscriber, sealed *cache.Sealed, rec recorder.Recorder, stats *model.RunStats) {
	var succeeded, failed, skipped, delivered atomic.Int64

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, sub := range subs {
		if ctx.Err() != nil {
			skipped.Add(int64(len(subs) - i))
			break
		}
		g.Go(func() error {
			// the slot may have been granted after cancellation
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			d := r.Distributor.Deliver(ctx, sub, sealed)
			if d.Outcome.Succeeded() {
				succeeded.Add(1)
				delivered.Add(int64(d.Items))
			} else {
				failed.Add(1)
			}
			if err := rec.RecordDelivery(&recorder.DeliveryRecord{
				RunID:   runID,
				Name:    sub.Name,
				Email:   sub.Email,
				Tickers: d.Tickers,
				Items:   d.Items,
				Outcome: d.Outcome,
			}); err != nil {
				log.Error().Err(err).Str("email", sub.Email).Msg("record delivery failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := skipped.Load(); n > 0 {
		log.Warn().Int64("skipped", n).Msg("run cancelled, remaining subscribers not served")
	}
	stats.Skipped = int(skipped.Load())
	stats.Succeeded = int(succeeded.Load())
	stats.Failed = int(failed.Load())
	stats.NewsDelivered = int(delivered.Load())
}

func tickerStrings(ts []model.Ticker) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
