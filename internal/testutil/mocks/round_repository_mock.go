package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/sandplay/internal/models"
)

// MockRoundRepository is a mock implementation of repository.RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Insert(ctx context.Context, round models.Round) (int64, error) {
	args := m.Called(ctx, round)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoundRepository) Get(ctx context.Context, id int64) (*models.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) List(ctx context.Context, filter models.RoundFilter) ([]models.Round, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Round), args.Error(1)
}

func (m *MockRoundRepository) Count(ctx context.Context, filter models.RoundFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockRoundRepository) Answers(ctx context.Context, filter models.RoundFilter) ([]models.AnswerRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnswerRecord), args.Error(1)
}
