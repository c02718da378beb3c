package repository

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
)

// AnalysisRepository handles sandbox analysis data access
type AnalysisRepository interface {
	Insert(ctx context.Context, analysis models.SandboxAnalysis) (int64, error)
	List(ctx context.Context, filter models.AnalysisFilter) ([]models.SandboxAnalysis, error)
}
