package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/joseph-ayodele/leads-import-worker/constants"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
)

const importJobsTable = "import_jobs"

var importJobColumns = []string{"id", "file_path", "status", "error", "created_at"}

// ErrClaimLost means another worker moved the job out of pending first.
var ErrClaimLost = fmt.Errorf("%w: job claimed by another worker", common.ErrConflict)

type ImportJobRepository interface {
	// ClaimNext moves the oldest pending job to processing. It returns nil, nil
	// when nothing is pending and ErrClaimLost when another worker won the race.
	ClaimNext(ctx context.Context) (*entity.ImportJob, error)
	// ClaimByID moves one specific pending job to processing.
	ClaimByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	// Requeue moves a failed job back to pending and clears its error.
	Requeue(ctx context.Context, id uuid.UUID) error
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	Create(ctx context.Context, filePath string) (*entity.ImportJob, error)
	// ReclaimStale resets processing jobs whose lease is older than olderThan.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
	CountByStatus(ctx context.Context) (map[constants.JobStatus]int, error)
}

type importJobRepo struct {
	drv         *entsql.Driver
	log         *slog.Logger
	clock       clock.PassiveClock
	leaseColumn string
}

type ImportJobOption func(*importJobRepo)

// WithLeaseColumn stamps claims with the current time in column so stale jobs can be reclaimed.
func WithLeaseColumn(column string) ImportJobOption {
	return func(r *importJobRepo) { r.leaseColumn = column }
}

func WithRepositoryClock(c clock.PassiveClock) ImportJobOption {
	return func(r *importJobRepo) {
		if c != nil {
			r.clock = c
		}
	}
}

func NewImportJobRepository(drv *entsql.Driver, log *slog.Logger, opts ...ImportJobOption) ImportJobRepository {
	if log == nil {
		log = slog.Default()
	}
	r := &importJobRepo{drv: drv, log: log, clock: clock.RealClock{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *importJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *importJobRepo) now() time.Time {
	return r.clock.Now().UTC()
}

func (r *importJobRepo) ClaimNext(ctx context.Context) (*entity.ImportJob, error) {
	b := r.builder()
	q, args := b.Select(importJobColumns...).
		From(b.Table(importJobsTable)).
		Where(entsql.EQ("status", string(constants.JobStatusPending))).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id")).
		Limit(1).
		Query()

	jobs, err := r.queryJobs(ctx, q, args)
	if err != nil {
		r.log.Error("import_job select pending failed", "err", err)
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	job := jobs[0]

	upd := b.Update(importJobsTable).
		Set("status", string(constants.JobStatusProcessing))
	if r.leaseColumn != "" {
		upd = upd.Set(r.leaseColumn, r.now())
	}
	q, args = upd.Where(entsql.And(
		entsql.EQ("id", job.ID),
		entsql.EQ("status", string(constants.JobStatusPending)),
	)).Query()

	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("import_job claim failed", "job_id", job.ID, "err", err)
		return nil, err
	}
	if n == 0 {
		r.log.Debug("import_job claim lost", "job_id", job.ID)
		return nil, ErrClaimLost
	}

	job.Status = constants.JobStatusProcessing
	r.log.Info("import_job claimed", "job_id", job.ID, "file_path", job.FilePath)
	return job, nil
}

func (r *importJobRepo) ClaimByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusPending {
		return nil, fmt.Errorf("%w: job %s is %s", common.ErrConflict, id, job.Status)
	}

	upd := r.builder().Update(importJobsTable).
		Set("status", string(constants.JobStatusProcessing))
	if r.leaseColumn != "" {
		upd = upd.Set(r.leaseColumn, r.now())
	}
	q, args := upd.Where(entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("status", string(constants.JobStatusPending)),
	)).Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("import_job claim by id failed", "job_id", id, "err", err)
		return nil, err
	}
	if n == 0 {
		return nil, ErrClaimLost
	}
	job.Status = constants.JobStatusProcessing
	r.log.Info("import_job claimed", "job_id", id, "file_path", job.FilePath)
	return job, nil
}

func (r *importJobRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	q, args := r.builder().Update(importJobsTable).
		Set("status", string(constants.JobStatusPending)).
		Set("error", nil).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusFailed)),
		)).
		Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("import_job requeue failed", "job_id", id, "err", err)
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s is not failed", common.ErrConflict, id)
	}
	r.log.Info("import_job requeued", "job_id", id)
	return nil
}

func (r *importJobRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	b := r.builder()
	q, args := b.Update(importJobsTable).
		Set("status", string(constants.JobStatusDone)).
		Set("error", nil).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusProcessing)),
		)).
		Query()
	if err := r.transition(ctx, id, q, args); err != nil {
		r.log.Error("import_job finish(done) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Info("import_job finished (done)", "job_id", id)
	return nil
}

func (r *importJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	b := r.builder()
	q, args := b.Update(importJobsTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error", message).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusProcessing)),
		)).
		Query()
	if err := r.transition(ctx, id, q, args); err != nil {
		r.log.Error("import_job finish(failed) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Warn("import_job finished (failed)", "job_id", id, "error", message)
	return nil
}

// transition runs a guarded status update and reports ErrConflict when the guard did not match.
func (r *importJobRepo) transition(ctx context.Context, id uuid.UUID, q string, args []any) error {
	n, err := r.exec(ctx, q, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s is not processing", common.ErrConflict, id)
	}
	return nil
}

func (r *importJobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	b := r.builder()
	q, args := b.Select(importJobColumns...).
		From(b.Table(importJobsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	jobs, err := r.queryJobs(ctx, q, args)
	if err != nil {
		r.log.Error("import_job get failed", "job_id", id, "err", err)
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("import job %s: %w", id, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *importJobRepo) Create(ctx context.Context, filePath string) (*entity.ImportJob, error) {
	job := &entity.ImportJob{
		ID:        uuid.New(),
		FilePath:  filePath,
		Status:    constants.JobStatusPending,
		CreatedAt: r.now(),
	}
	q, args := r.builder().Insert(importJobsTable).
		Columns("id", "file_path", "status", "created_at").
		Values(job.ID, job.FilePath, string(job.Status), job.CreatedAt).
		Query()
	if _, err := r.exec(ctx, q, args); err != nil {
		r.log.Error("import_job create failed", "file_path", filePath, "err", err)
		return nil, err
	}
	r.log.Info("import_job created", "job_id", job.ID, "file_path", filePath)
	return job, nil
}

func (r *importJobRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if r.leaseColumn == "" {
		return 0, fmt.Errorf("%w: reclaim requires a lease column", common.ErrInvalidInput)
	}
	now := r.now()
	q, args := r.builder().Update(importJobsTable).
		Set("status", string(constants.JobStatusPending)).
		Set(r.leaseColumn, now).
		Where(entsql.And(
			entsql.EQ("status", string(constants.JobStatusProcessing)),
			entsql.LT(r.leaseColumn, now.Add(-olderThan)),
		)).
		Query()
	n, err := r.exec(ctx, q, args)
	if err != nil {
		r.log.Error("import_job reclaim failed", "err", err)
		return 0, err
	}
	if n > 0 {
		r.log.Warn("import_job reclaimed stale jobs", "count", n, "older_than", olderThan)
	}
	return n, nil
}

func (r *importJobRepo) CountByStatus(ctx context.Context) (map[constants.JobStatus]int, error) {
	b := r.builder()
	q, args := b.Select("status", entsql.Count("*")).
		From(b.Table(importJobsTable)).
		GroupBy("status").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		r.log.Error("import_job count failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[constants.JobStatus]int, len(constants.AllJobStatuses))
	for _, s := range constants.AllJobStatuses {
		out[s] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[constants.JobStatus(status)] = count
	}
	return out, rows.Err()
}

func (r *importJobRepo) queryJobs(ctx context.Context, q string, args []any) ([]*entity.ImportJob, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.ImportJob
	for rows.Next() {
		var (
			job    entity.ImportJob
			status string
			msg    sql.NullString
		)
		if err := rows.Scan(&job.ID, &job.FilePath, &status, &msg, &job.CreatedAt); err != nil {
			return nil, err
		}
		job.Status = constants.JobStatus(status)
		if msg.Valid {
			job.Error = &msg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *importJobRepo) exec(ctx context.Context, q string, args []any) (int64, error) {
	var res entsql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Join(common.ErrDatabase, err)
	}
	return n, nil
}
