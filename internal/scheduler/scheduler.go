package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named background jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating schedules in UTC.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers f under spec, e.g. "@every 1m" or "0 21 * * *".
// A run is skipped while the previous one is still in progress.
func (s *Scheduler) AddJob(name, spec string, f func(ctx context.Context) error) error {
	job := cron.FuncJob(func() {
		start := time.Now()
		if err := f(s.ctx); err != nil {
			slog.Error("scheduled job failed", slog.String("job", name), slog.Any("err", err))
			return
		}
		slog.Debug("scheduled job done", slog.String("job", name), slog.Duration("took", time.Since(start)))
	})
	_, err := s.cron.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job))
	return err
}

// Start launches the cron loop. Without registered jobs it does nothing.
func (s *Scheduler) Start() {
	if !s.IsRunning() {
		slog.Warn("scheduler has no jobs, not starting")
		return
	}
	s.cron.Start()
	slog.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	slog.Info("scheduler stopped")
}

// IsRunning reports whether any job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
