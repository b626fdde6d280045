package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
)

type fakeSource struct {
	mu         sync.Mutex
	jobs       []*entity.ImportJob
	claimErr   error
	claims     int
	reclaims   int
	reclaimAge time.Duration
}

func (f *fakeSource) ClaimNext(context.Context) (*entity.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return job, nil
}

func (f *fakeSource) ReclaimStale(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reclaims++
	f.reclaimAge = olderThan
	return 1, nil
}

func (f *fakeSource) claimCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []uuid.UUID
	err       error
	deadline  bool
}

func (f *fakeProcessor) ProcessJob(ctx context.Context, job *entity.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, job.ID)
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestRunOnce_NoPendingJobs(t *testing.T) {
	src := &fakeSource{}
	proc := &fakeProcessor{}
	s := NewScheduler(src, proc, nil, WithPollInterval(30*time.Second))

	wait, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, wait)
	assert.Empty(t, proc.processed)
	assert.Equal(t, 0, src.reclaims, "reclaim is off by default")
}

func TestRunOnce_ProcessesJob(t *testing.T) {
	job := &entity.ImportJob{ID: uuid.New(), FilePath: "a.xlsx"}
	src := &fakeSource{jobs: []*entity.ImportJob{job}}
	proc := &fakeProcessor{}
	s := NewScheduler(src, proc, nil)

	wait, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, wait, "poll again right after a job")
	assert.Equal(t, []uuid.UUID{job.ID}, proc.processed)
	assert.False(t, proc.deadline)
}

func TestRunOnce_ClaimError(t *testing.T) {
	src := &fakeSource{claimErr: errors.New("connection refused")}
	s := NewScheduler(src, &fakeProcessor{}, nil, WithErrorBackoff(10*time.Second))

	wait, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 10*time.Second, wait)
}

func TestRunOnce_LostClaim(t *testing.T) {
	src := &fakeSource{claimErr: common.ErrConflict}
	proc := &fakeProcessor{}
	s := NewScheduler(src, proc, nil)

	wait, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, wait)
	assert.Empty(t, proc.processed)
}

func TestRunOnce_ProcessError(t *testing.T) {
	job := &entity.ImportJob{ID: uuid.New()}
	src := &fakeSource{jobs: []*entity.ImportJob{job}}
	proc := &fakeProcessor{err: errors.New("write batch 1: boom")}
	s := NewScheduler(src, proc, nil, WithErrorBackoff(7*time.Second))

	wait, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), job.ID.String())
	assert.Equal(t, 7*time.Second, wait)
}

func TestRunOnce_LeaseAndTimeout(t *testing.T) {
	job := &entity.ImportJob{ID: uuid.New()}
	src := &fakeSource{jobs: []*entity.ImportJob{job}}
	proc := &fakeProcessor{}
	s := NewScheduler(src, proc, nil, WithLeaseTimeout(15*time.Minute), WithJobTimeout(time.Minute))

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.reclaims)
	assert.Equal(t, 15*time.Minute, src.reclaimAge)
	assert.True(t, proc.deadline)
}

func TestRun_Disabled(t *testing.T) {
	src := &fakeSource{}
	s := NewScheduler(src, &fakeProcessor{}, nil, WithEnabled(false))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 0, src.claimCount())
}

func TestRun_PollsOnIntervalUntilCancelled(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	src := &fakeSource{}
	s := NewScheduler(src, &fakeProcessor{}, nil, WithClock(fc), WithPollInterval(30*time.Second), WithWorkerID("w-1"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	assert.Equal(t, 1, src.claimCount())

	fc.Step(29 * time.Second)
	assert.Equal(t, 1, src.claimCount(), "no poll before the interval elapses")

	fc.Step(time.Second)
	require.Eventually(t, func() bool { return src.claimCount() == 2 && fc.HasWaiters() }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRun_BacksOffAfterError(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Now())
	src := &fakeSource{claimErr: errors.New("db down")}
	s := NewScheduler(src, &fakeProcessor{}, nil, WithClock(fc), WithErrorBackoff(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(10 * time.Second)
	require.Eventually(t, func() bool { return src.claimCount() == 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
}
