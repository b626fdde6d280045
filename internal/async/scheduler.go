package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
	"github.com/joseph-ayodele/leads-import-worker/internal/metrics"
)

// JobSource hands out pending jobs one at a time.
type JobSource interface {
	// ClaimNext returns nil, nil when nothing is pending. An error wrapping
	// common.ErrConflict means another worker claimed the job first.
	ClaimNext(ctx context.Context) (*entity.ImportJob, error)
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// JobProcessor runs a claimed job to a final status.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *entity.ImportJob) error
}

// Scheduler polls the job source and processes one job at a time.
type Scheduler struct {
	source  JobSource
	proc    JobProcessor
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	enabled      bool
	workerID     string
	pollInterval time.Duration
	errorBackoff time.Duration
	jobTimeout   time.Duration
	leaseTimeout time.Duration
}

type Option func(*Scheduler)

func WithEnabled(enabled bool) Option {
	return func(s *Scheduler) { s.enabled = enabled }
}

func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

func WithErrorBackoff(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.errorBackoff = d
		}
	}
}

// WithJobTimeout bounds a single job; zero means no limit.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLeaseTimeout turns on reclaiming of jobs stuck in processing longer than d.
func WithLeaseTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.leaseTimeout = d
		}
	}
}

func WithWorkerID(id string) Option {
	return func(s *Scheduler) { s.workerID = id }
}

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewScheduler(source JobSource, proc JobProcessor, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		source:       source,
		proc:         proc,
		logger:       logger,
		clock:        clock.RealClock{},
		metrics:      metrics.Get(),
		enabled:      true,
		pollInterval: 30 * time.Second,
		errorBackoff: 10 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run loops until ctx is cancelled. A disabled scheduler returns immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.workerID != "" {
		ctx = common.WithWorkerID(ctx, s.workerID)
	}
	log := common.LoggerFromContext(ctx, s.logger)

	if !s.enabled {
		log.Info("import worker disabled")
		return nil
	}
	log.Info("import worker started",
		"poll_interval", s.pollInterval,
		"error_backoff", s.errorBackoff,
		"lease_timeout", s.leaseTimeout,
	)

	for {
		if ctx.Err() != nil {
			break
		}
		wait, err := s.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.metrics.RecordPollError()
			log.Error("import worker iteration failed", "err", err, "retry_in", wait)
		}
		if wait <= 0 {
			continue
		}
		if !s.sleep(ctx, wait) {
			break
		}
	}

	log.Info("import worker stopped")
	return nil
}

// RunOnce performs one poll: optional reclaim, claim, process. It returns how
// long to wait before the next poll.
func (s *Scheduler) RunOnce(ctx context.Context) (time.Duration, error) {
	log := common.LoggerFromContext(ctx, s.logger)

	if s.leaseTimeout > 0 {
		n, err := s.source.ReclaimStale(ctx, s.leaseTimeout)
		if err != nil {
			return s.errorBackoff, fmt.Errorf("reclaim stale jobs: %w", err)
		}
		if n > 0 {
			s.metrics.RecordReclaimed(n)
		}
	}

	job, err := s.source.ClaimNext(ctx)
	switch {
	case errors.Is(err, common.ErrConflict):
		log.Debug("claim lost, polling again")
		return 0, nil
	case err != nil:
		return s.errorBackoff, fmt.Errorf("claim next job: %w", err)
	case job == nil:
		log.Debug("no pending import jobs", "next_poll", s.pollInterval)
		return s.pollInterval, nil
	}

	jobCtx := ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	log.Info("processing import job", "job_id", job.ID, "file_path", job.FilePath)
	if err := s.proc.ProcessJob(jobCtx, job); err != nil {
		return s.errorBackoff, fmt.Errorf("process job %s: %w", job.ID, err)
	}
	return 0, nil
}

// sleep waits for d and reports false if ctx ended first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	t := s.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}
