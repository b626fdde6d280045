package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
	"github.com/joseph-ayodele/leads-import-worker/internal/leads"
	"github.com/joseph-ayodele/leads-import-worker/internal/metrics"
	"github.com/joseph-ayodele/leads-import-worker/internal/spreadsheet"
)

const (
	DefaultBatchSize  = 500
	DefaultBatchDelay = 100 * time.Millisecond
)

// LeadWriter persists one batch of normalized leads in a single call.
type LeadWriter interface {
	BulkInsert(ctx context.Context, batch []entity.Lead) error
}

// Result summarizes a finished ingest.
type Result struct {
	Rows    int
	Batches int
}

func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rows", r.Rows),
		slog.Int("batches", r.Batches),
	)
}

// Ingestor normalizes decoded rows and writes them in throttled batches.
type Ingestor struct {
	writer     LeadWriter
	logger     *slog.Logger
	clock      clock.Clock
	metrics    *metrics.Metrics
	batchSize  int
	batchDelay time.Duration
	validate   func([]entity.Lead) error // nil skips validation
}

type Option func(*Ingestor)

func WithBatchSize(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func WithBatchDelay(d time.Duration) Option {
	return func(i *Ingestor) {
		if d >= 0 {
			i.batchDelay = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(i *Ingestor) {
		if c != nil {
			i.clock = c
		}
	}
}

// WithSchemaValidation checks every encoded batch against the lead schema before writing.
func WithSchemaValidation(enabled bool) Option {
	return func(i *Ingestor) {
		i.validate = nil
		if enabled {
			i.validate = validateBatch
		}
	}
}

func NewIngestor(writer LeadWriter, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingestor{
		writer:     writer,
		logger:     logger,
		clock:      clock.RealClock{},
		metrics:    metrics.Get(),
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Ingest writes rows for jobID batch by batch. The first failed write stops the
// ingest and is returned as a *BatchError; nothing is retried.
func (i *Ingestor) Ingest(ctx context.Context, jobID uuid.UUID, rows []spreadsheet.Row) (Result, error) {
	var res Result
	batches := Partition(rows, i.batchSize)

	for k, batchRows := range batches {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("ingest interrupted before batch %d: %w", k+1, err)
		}

		batch := leads.NormalizeAll(batchRows, jobID)
		if i.validate != nil {
			if err := i.validate(batch); err != nil {
				i.logger.Error("ingest.batch.invalid",
					"job_id", jobID, "batch", k+1, "of", len(batches), "rows", len(batch), "error", err)
				return res, &BatchError{Op: OpValidate, Batch: k + 1, Committed: res.Rows, Cause: err}
			}
		}

		start := i.clock.Now()
		if err := i.writer.BulkInsert(ctx, batch); err != nil {
			i.metrics.RecordBatchFailed(i.clock.Since(start))
			i.logger.Error("ingest.batch.failed",
				"job_id", jobID, "batch", k+1, "of", len(batches), "rows", len(batch), "error", err)
			return res, &BatchError{Op: OpWrite, Batch: k + 1, Committed: res.Rows, Cause: err}
		}
		i.metrics.RecordBatchWritten(len(batch), i.clock.Since(start))

		res.Batches++
		res.Rows += len(batch)
		i.logger.Info("ingest.batch.written",
			"job_id", jobID, "batch", k+1, "of", len(batches), "rows", len(batch))

		if k < len(batches)-1 && i.batchDelay > 0 {
			if err := i.sleep(ctx, i.batchDelay); err != nil {
				return res, fmt.Errorf("ingest interrupted after batch %d: %w", k+1, err)
			}
		}
	}
	return res, nil
}

func (i *Ingestor) sleep(ctx context.Context, d time.Duration) error {
	t := i.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func validateBatch(batch []entity.Lead) error {
	b, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return leads.ValidateBatchJSON(b)
}
