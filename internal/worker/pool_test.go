package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/testutil/mocks"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

type saverFunc func(context.Context, models.Round) (int64, error)

func (f saverFunc) SaveRound(ctx context.Context, r models.Round) (int64, error) { return f(ctx, r) }

func TestPool_RunsJobsAndCountsOutcomes(t *testing.T) {
	m := metrics.NewManager()
	p := NewPool(2, 4, m)
	p.Start(context.Background())

	var ran atomic.Int32
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		fail := i == 2
		require.NoError(t, p.Submit(context.Background(), funcJob{name: "probe", fn: func(context.Context) error {
			ran.Add(1)
			done <- struct{}{}
			if fail {
				return errors.New("boom")
			}
			return nil
		}}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run")
		}
	}
	p.Stop()

	assert.Equal(t, int32(3), ran.Load())
	count, err := testutil.GatherAndCount(m.Registry(), "sandplay_worker_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // ok and error series
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1, nil)
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(context.Background(), funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_SubmitHonorsContextWhenFull(t *testing.T) {
	p := NewPool(1, 1, nil)
	// not started: the single slot fills and the next submit blocks
	require.NoError(t, p.Submit(context.Background(), funcJob{name: "a", fn: func(context.Context) error { return nil }}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, funcJob{name: "b", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, p.QueueSize())
}

func TestSaveRoundJob_ReportsOutcome(t *testing.T) {
	done := make(chan error, 1)
	job := &SaveRoundJob{
		Saver: saverFunc(func(_ context.Context, r models.Round) (int64, error) {
			assert.Equal(t, 2, r.Number)
			return 7, nil
		}),
		Round: models.Round{Number: 2},
		Done:  done,
	}
	assert.Equal(t, "save_round", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.NoError(t, <-done)
}

func TestRecordAnalysisJob(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	a := models.SandboxAnalysis{UserID: "kid", Caption: "c"}
	repo.On("Insert", mock.Anything, a).Return(int64(1), nil).Once()
	repo.On("Insert", mock.Anything, a).Return(int64(0), errors.New("disk full")).Once()

	job := &RecordAnalysisJob{Repo: repo, Analysis: a}
	assert.NoError(t, job.Run(context.Background()))
	assert.EqualError(t, job.Run(context.Background()), "disk full")
	repo.AssertExpectations(t)
}
