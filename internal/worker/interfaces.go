package worker

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
)

// RoundSaver persists a finished round.
// This avoids import cycles by not importing the services package
type RoundSaver interface {
	SaveRound(ctx context.Context, round models.Round) (int64, error)
}
