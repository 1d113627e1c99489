package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"TradingCore/internal/model"
	"TradingCore/internal/notifier"
	"TradingCore/internal/pipeline"
)

// Runner executes one digest run.
type Runner interface {
	Run(ctx context.Context) (model.RunStats, error)
}

// Scheduler runs the digest on a cron expression and never overlaps runs.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Brand  string
	Ctx    context.Context

	mu      sync.Mutex
	running bool
	last    *model.RunStats
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, brand string) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Brand:  brand,
		Ctx:    ctx,
	}
}

// Register adds the digest job. The expression has a leading seconds field.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes one run immediately unless one is already in progress.
// It reports whether a run was started.
func (s *Scheduler) RunNow() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("previous run still in progress, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Info().Msg("running digest task")
	stats, err := s.Runner.Run(s.Ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoSubscribers), errors.Is(err, pipeline.ErrNoTickers):
		log.Warn().Err(err).Msg("nothing to send")
	case err != nil:
		log.Error().Err(err).Msg("digest run ended with error")
	}

	s.mu.Lock()
	s.last = &stats
	s.mu.Unlock()
	return true
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/run":
		if s.Running() {
			return "⏳ Uma execução já está em andamento."
		}
		go s.RunNow()
		return "🚀 Execução iniciada."
	case "/status":
		s.mu.Lock()
		last, running := s.last, s.running
		s.mu.Unlock()
		if running {
			return "⏳ Execução em andamento."
		}
		if last == nil {
			return "Nenhuma execução concluída ainda."
		}
		return notifier.FormatRunReport(s.Brand, *last)
	default:
		return "Comandos disponíveis:\n• /run - executar agora\n• /status - última execução"
	}
}
