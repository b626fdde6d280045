// Package pipeline runs one claimed import job from download to final status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/joseph-ayodele/leads-import-worker/constants"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
	"github.com/joseph-ayodele/leads-import-worker/internal/ingest"
	"github.com/joseph-ayodele/leads-import-worker/internal/metrics"
	"github.com/joseph-ayodele/leads-import-worker/internal/spreadsheet"
)

// Downloader fetches the uploaded file for a job.
type Downloader interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

// RowIngestor writes decoded rows for a job.
type RowIngestor interface {
	Ingest(ctx context.Context, jobID uuid.UUID, rows []spreadsheet.Row) (ingest.Result, error)
}

// JobFinisher records the final status of a job.
type JobFinisher interface {
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// DecodeFunc parses file bytes into rows; path selects the format.
type DecodeFunc func(data []byte, path string) ([]spreadsheet.Row, error)

// Processor coordinates download, decode and batch ingest, then records the outcome.
type Processor struct {
	Logger   *slog.Logger
	Files    Downloader
	Ingestor RowIngestor
	Jobs     JobFinisher
	Decode   DecodeFunc
	Bucket   string

	clock          clock.PassiveClock
	metrics        *metrics.Metrics
	statusAttempts uint
	statusDelay    time.Duration
}

type Option func(*Processor)

// WithStatusRetry sets how often a final status write is attempted.
func WithStatusRetry(attempts uint, delay time.Duration) Option {
	return func(p *Processor) {
		if attempts > 0 {
			p.statusAttempts = attempts
		}
		if delay >= 0 {
			p.statusDelay = delay
		}
	}
}

func WithDecoder(fn DecodeFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.Decode = fn
		}
	}
}

func WithClock(c clock.PassiveClock) Option {
	return func(p *Processor) {
		if c != nil {
			p.clock = c
		}
	}
}

func NewProcessor(logger *slog.Logger, files Downloader, ing RowIngestor, jobs JobFinisher, bucket string, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		Logger:         logger,
		Files:          files,
		Ingestor:       ing,
		Jobs:           jobs,
		Decode:         spreadsheet.Decode,
		Bucket:         bucket,
		clock:          clock.RealClock{},
		metrics:        metrics.Get(),
		statusAttempts: 3,
		statusDelay:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessJob runs a claimed job. Any failure is recorded on the job as failed
// and returned; success marks the job done.
func (p *Processor) ProcessJob(ctx context.Context, job *entity.ImportJob) error {
	ctx = common.WithJobID(ctx, job.ID.String())
	log := common.LoggerFromContext(ctx, p.Logger)
	start := p.clock.Now()

	res, err := p.run(ctx, job, log)
	if err != nil {
		log.Error("processor.job.failed", "file_path", job.FilePath, "err", err)
		if uerr := p.finish(ctx, log, func(c context.Context) error {
			return p.Jobs.MarkFailed(c, job.ID, err.Error())
		}); uerr != nil {
			return errors.Join(err, fmt.Errorf("record failure: %w", uerr))
		}
		p.metrics.RecordJobFinished(string(constants.JobStatusFailed), p.clock.Since(start))
		return err
	}

	if uerr := p.finish(ctx, log, func(c context.Context) error {
		return p.Jobs.MarkDone(c, job.ID)
	}); uerr != nil {
		return fmt.Errorf("record success: %w", uerr)
	}
	p.metrics.RecordJobFinished(string(constants.JobStatusDone), p.clock.Since(start))
	log.Info("processor.job.done", "result", res, "elapsed", p.clock.Since(start))
	return nil
}

func (p *Processor) run(ctx context.Context, job *entity.ImportJob, log *slog.Logger) (ingest.Result, error) {
	// 1) Fetch
	data, err := p.Files.Download(ctx, p.Bucket, job.FilePath)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("download %s: %w", job.FilePath, err)
	}
	log.Info("processor.download.ok", "file_path", job.FilePath, "bytes", len(data))

	// 2) Decode first sheet
	rows, err := p.Decode(data, job.FilePath)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("decode %s: %w", job.FilePath, err)
	}
	log.Info("processor.decode.ok", "rows", len(rows))

	// 3) Normalize and write in batches
	return p.Ingestor.Ingest(ctx, job.ID, rows)
}

// finish writes a final status with retries. It runs detached from ctx cancellation
// so a job that already ran is not left in processing during shutdown.
func (p *Processor) finish(ctx context.Context, log *slog.Logger, update func(context.Context) error) error {
	detached := context.WithoutCancel(ctx)
	return retry.Do(
		func() error { return update(detached) },
		retry.Context(detached),
		retry.Attempts(p.statusAttempts),
		retry.Delay(p.statusDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, common.ErrConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("processor.status.retry", "attempt", n+1, "err", err)
		}),
	)
}
