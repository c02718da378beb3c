package repository

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
)

// RoundRepository handles quiz round data access
type RoundRepository interface {
	Insert(ctx context.Context, round models.Round) (int64, error)
	Get(ctx context.Context, id int64) (*models.Round, error)
	List(ctx context.Context, filter models.RoundFilter) ([]models.Round, error)
	Count(ctx context.Context, filter models.RoundFilter) (int, error)
	// Answers returns every stored answer of the matching rounds, oldest first.
	Answers(ctx context.Context, filter models.RoundFilter) ([]models.AnswerRecord, error)
}
