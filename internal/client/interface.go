package client

import (
	"context"

	"github.com/vytor/sandplay/internal/models"
)

// ClientInterface defines the backend operations used by the CLI and by
// the server when it forwards analyses upstream.
type ClientInterface interface {
	FetchSummary(ctx context.Context) (*models.AnalysisSummary, error)
	FetchFeedback(ctx context.Context) (*models.Feedback, error)
	SaveRound(ctx context.Context, result models.RoundResult) (*SaveResponse, error)
	SubmitRound(ctx context.Context, result models.RoundResult) error
	AnalyzeSandbox(ctx context.Context, req AnalyzeRequest) (*models.SandboxAnalysis, error)
	Health(ctx context.Context) (*HealthResponse, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
