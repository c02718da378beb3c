package jobs

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// SaveRound queues the round and waits for it to be stored or for ctx to end.
	SaveRound(ctx context.Context, round models.Round) error
	// EnqueueAnalysisRecord queues a history entry without waiting for it.
	EnqueueAnalysisRecord(ctx context.Context, analysis models.SandboxAnalysis) error
}
