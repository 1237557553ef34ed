package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pacsbot/internal/repository"
)

// Runner is implemented by components executing one fetch cycle.
type Runner interface {
	Run(ctx context.Context)
}

// Scheduler drives the workflow on a fixed cadence. At most one run is
// in flight at any instant; overlapping ticks are skipped.
type Scheduler struct {
	cron     *cron.Cron
	workflow Runner
	toggles  *repository.ToggleRepository
	interval time.Duration
	logger   *zap.Logger
	inFlight atomic.Bool
}

func NewScheduler(workflow Runner, toggles *repository.ToggleRepository, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		workflow: workflow,
		toggles:  toggles,
		interval: interval,
		logger:   logger,
	}
}

// Start registers the fetch job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("Starting fetch scheduler", zap.Duration("interval", s.interval))
	s.cron.AddFunc("@every "+s.interval.String(), s.Tick)
	s.cron.Start()
	s.logger.Info("Fetch scheduler started")
}

// Stop gracefully stops the cron loop. The returned context is done
// once any in-flight tick has returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick runs one scheduling decision: skip when a run is already in
// flight or automation is off, otherwise invoke the workflow. The
// in-flight flag is released on every exit path, panics included; a
// stuck flag would stop the worker from ever polling again.
func (s *Scheduler) Tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Skipping tick: previous run still in flight")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in fetch run", zap.Any("panic", r))
		}
		s.inFlight.Store(false)
	}()

	if !s.toggles.IsEnabled() {
		s.logger.Debug("Skipping tick: automation disabled")
		return
	}

	runID := uuid.NewString()
	s.logger.Info("Starting fetch run", zap.String("run_id", runID))
	s.workflow.Run(context.Background())
	s.logger.Info("Fetch run completed", zap.String("run_id", runID))
}
