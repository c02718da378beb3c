package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/sandplay/internal/models"
)

// MockAnalysisRepository is a mock implementation of repository.AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Insert(ctx context.Context, analysis models.SandboxAnalysis) (int64, error) {
	args := m.Called(ctx, analysis)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnalysisRepository) List(ctx context.Context, filter models.AnalysisFilter) ([]models.SandboxAnalysis, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SandboxAnalysis), args.Error(1)
}
