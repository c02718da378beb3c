package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/sandplay/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) SaveRound(ctx context.Context, round models.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueAnalysisRecord(ctx context.Context, analysis models.SandboxAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}
