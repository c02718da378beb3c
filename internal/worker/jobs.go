package worker

import (
	"context"

	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
)

// SaveRoundJob stores a round played in a quiz session. The outcome is sent
// on Done when it is set; Done must be buffered.
type SaveRoundJob struct {
	Saver RoundSaver
	Round models.Round
	Done  chan<- error
}

func (j *SaveRoundJob) Name() string { return "save_round" }

func (j *SaveRoundJob) Run(ctx context.Context) error {
	id, err := j.Saver.SaveRound(ctx, j.Round)
	if err == nil {
		logger.FromContext(ctx).Debug("round %d stored as id=%d", j.Round.Number, id)
	}
	if j.Done != nil {
		j.Done <- err
	}
	return err
}

// RecordAnalysisJob appends a sandbox analysis to the history.
type RecordAnalysisJob struct {
	Repo     repository.AnalysisRepository
	Analysis models.SandboxAnalysis
}

func (j *RecordAnalysisJob) Name() string { return "record_analysis" }

func (j *RecordAnalysisJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("user_id", j.Analysis.UserID)
	id, err := j.Repo.Insert(ctx, j.Analysis)
	if err != nil {
		log.Error("failed to record analysis: %v", err)
		return err
	}
	log.Debug("analysis recorded: id=%d", id)
	return nil
}
