package jobs

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
	"github.com/vytor/sandplay/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool         *worker.Pool
	saver        worker.RoundSaver
	analysisRepo repository.AnalysisRepository
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, saver worker.RoundSaver, analysisRepo repository.AnalysisRepository) JobQueue {
	return &WorkerQueue{
		pool:         pool,
		saver:        saver,
		analysisRepo: analysisRepo,
	}
}

func (q *WorkerQueue) SaveRound(ctx context.Context, round models.Round) error {
	done := make(chan error, 1)
	if err := q.pool.Submit(ctx, &worker.SaveRoundJob{Saver: q.saver, Round: round, Done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WorkerQueue) EnqueueAnalysisRecord(ctx context.Context, analysis models.SandboxAnalysis) error {
	return q.pool.Submit(ctx, &worker.RecordAnalysisJob{Repo: q.analysisRepo, Analysis: analysis})
}
