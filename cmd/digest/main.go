package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/phuslu/log"

	"TradingCore/internal/analyzer"
	"TradingCore/internal/app"
	"TradingCore/internal/collector"
	"TradingCore/internal/config"
	"TradingCore/internal/contextstore"
	"TradingCore/internal/distributor"
	"TradingCore/internal/notifier"
	"TradingCore/internal/pipeline"
	"TradingCore/internal/recorder"
	"TradingCore/internal/scheduler"
	"TradingCore/internal/strategy"
)

const brand = "TradingCore"

func main() {
	os.Exit(run())
}

func run() int {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return 1
	}
	app.SetupLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			log.Error().Strs("missing", missing.Names).Msg("configuration incomplete")
		} else {
			log.Error().Err(err).Msg("config validation")
		}
		return 1
	}
	log.Info().Str("config", cfgPath).Msg("TradingCore starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init analysis stage
	scorer, err := app.NewScorer(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init llm provider")
		return 1
	}
	news := app.NewNewsFetcher(cfg)
	log.Info().Str("source", news.Name()).Msg("news source ready")

	var contexts analyzer.ContextResolver
	if cfg.Analysis.StrategicContext {
		store, closer, err := app.NewContextStore(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Msg("init context store")
			return 1
		}
		defer closer.Close()
		contexts = contextstore.NewResolver(store, scorer)
	}

	ranking, err := strategy.Parse(cfg.Analysis.Ranking)
	if err != nil {
		log.Error().Err(err).Msg("parse ranking")
		return 1
	}
	an := analyzer.New(news, scorer, contexts, analyzer.Options{
		MaxNews: cfg.Analysis.MaxNewsPerTicker,
		Selection: strategy.Selection{
			Ranking:      ranking,
			TopN:         cfg.Analysis.TopN,
			MinRelevance: cfg.Analysis.MinRelevance,
		},
		Consolidated: cfg.Analysis.Consolidated,
		CallTimeout:  cfg.CallTimeout(),
	})

	var quotes pipeline.QuoteCollector
	if cfg.Prices.Enabled {
		quotes = collector.NewCollector(collector.NewYahooQuoteFetcher(cfg.Prices.Suffix, cfg.Proxy), cfg.CallTimeout())
	}

	// Init delivery stage
	source, err := app.NewSubscriberSource(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init subscriber source")
		return 1
	}
	renderer, err := notifier.NewRenderer(brand, cfg.Lookback(), cfg.Location())
	if err != nil {
		log.Error().Err(err).Msg("init renderer")
		return 1
	}
	sender := notifier.NewSMTPSender(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Sender, cfg.Email.Password, cfg.Email.FromName)
	dist := distributor.New(renderer, sender, cfg.CallTimeout())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var operator pipeline.OperatorNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		operator = tn
	}

	runner := &pipeline.Runner{
		Source:      source,
		Analyzer:    an,
		Quotes:      quotes,
		Distributor: dist,
		Recorder:    rec,
		Operator:    operator,
		Workers:     cfg.Pipeline.Workers,
		Lookback:    cfg.Lookback(),
		Location:    cfg.Location(),
		Brand:       brand,
	}

	if cfg.Schedule.Cron == "" {
		return runOnce(ctx, runner)
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, runner, brand)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Error().Err(err).Msg("register cron task")
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, triggering digest")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.Cron).Msg("TradingCore running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutting down...")
	return 0
}

func runOnce(ctx context.Context, runner *pipeline.Runner) int {
	stats, err := runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrNoSubscribers), errors.Is(err, pipeline.ErrNoTickers):
		log.Warn().Err(err).Msg("nothing to send")
	case errors.Is(err, context.Canceled):
		log.Warn().Msg("run interrupted")
	default:
		log.Error().Err(err).Msg("run failed")
		return 1
	}
	log.Info().Str("run", stats.RunID).Int("sent", stats.Succeeded).Int("failed", stats.Failed).Msg("done")
	return 0
}
