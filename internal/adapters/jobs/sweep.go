// Package jobs runs background maintenance on a schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/go-co-op/gocron/v2"
)

// DefaultSweepInterval is the period between scheduled sweeps.
const DefaultSweepInterval = time.Hour

// Sweeper performs one expiry sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (repository.SweepReport, error)
}

// Option applies a configuration option to the SweepJob.
type Option func(*SweepJob)

// WithInterval sets the sweep period. Zero disables scheduling; RunOnce
// still works.
func WithInterval(d time.Duration) Option {
	return func(j *SweepJob) {
		if d >= 0 {
			j.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(j *SweepJob) {
		if l != nil {
			j.logger = l
		}
	}
}

// SweepJob runs a Sweeper periodically. Runs never overlap: a tick that
// fires while a sweep is in progress is rescheduled.
type SweepJob struct {
	sweeper  Sweeper
	interval time.Duration
	logger   logger.Logger

	mu        sync.Mutex
	running   sync.Mutex
	sched     gocron.Scheduler
	cancel    context.CancelFunc
	runs      int
	last      repository.SweepReport
	lastErr   error
	hasReport bool
}

// NewSweepJob creates a job around sweeper.
func NewSweepJob(sweeper Sweeper, opts ...Option) *SweepJob {
	j := &SweepJob{
		sweeper:  sweeper,
		interval: DefaultSweepInterval,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start schedules the job. It is a no-op when the interval is zero or the
// job is already started.
func (j *SweepJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.interval == 0 {
		j.logger.Info(ctx, "sweep job disabled")
		return nil
	}
	if j.sched != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			_, _ = j.RunOnce(runCtx)
		}),
		gocron.WithName("score-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	sched.Start()
	j.sched = sched
	j.cancel = cancel
	j.logger.Info(ctx, "sweep job started", logger.Duration("interval", j.interval))
	return nil
}

// Stop cancels an in-flight sweep and shuts the scheduler down.
func (j *SweepJob) Stop() error {
	j.mu.Lock()
	sched, cancel := j.sched, j.cancel
	j.sched, j.cancel = nil, nil
	j.mu.Unlock()

	if sched == nil {
		return nil
	}
	cancel()
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

// RunOnce performs a sweep now and records its report. Concurrent calls are
// serialized.
func (j *SweepJob) RunOnce(ctx context.Context) (repository.SweepReport, error) {
	j.running.Lock()
	defer j.running.Unlock()

	report, err := j.sweeper.Sweep(ctx)

	j.mu.Lock()
	j.runs++
	j.last = report
	j.lastErr = err
	j.hasReport = true
	j.mu.Unlock()

	if err != nil {
		j.logger.Error(ctx, "scheduled sweep failed", logger.String("run_id", report.RunID), logger.Error(err))
	}
	return report, err
}

// LastReport returns the latest report. ok is false before the first run.
func (j *SweepJob) LastReport() (report repository.SweepReport, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last, j.hasReport
}

// LastError returns the error of the latest run, if any.
func (j *SweepJob) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Runs returns the number of completed sweeps.
func (j *SweepJob) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

// Interval returns the configured period.
func (j *SweepJob) Interval() time.Duration {
	return j.interval
}
