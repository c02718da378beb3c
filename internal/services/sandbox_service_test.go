package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/sandplay/internal/caption"
	"github.com/vytor/sandplay/internal/client"
	apperrors "github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/testutil/mocks"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type upstreamFunc func(context.Context, client.AnalyzeRequest) (*models.SandboxAnalysis, error)

func (f upstreamFunc) AnalyzeSandbox(ctx context.Context, req client.AnalyzeRequest) (*models.SandboxAnalysis, error) {
	return f(ctx, req)
}

var fixedNow = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

func newSandboxService(queue *mocks.MockJobQueue, opts SandboxOptions) SandboxService {
	opts.Rand = rand.New(rand.NewSource(3))
	opts.Now = func() time.Time { return fixedNow }
	return NewSandboxService(new(mocks.MockAnalysisRepository), queue, nil, opts)
}

func TestSandboxAnalyze_Local(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	queue.On("EnqueueAnalysisRecord", mock.Anything, mock.MatchedBy(func(a models.SandboxAnalysis) bool {
		return a.UserID == "kid-1" && len(a.Items) == 1
	})).Return(nil).Once()
	svc := newSandboxService(queue, SandboxOptions{})

	img := pngBytes(t, 64, 48)
	cfg, _, err := caption.Validate(img, 0)
	require.NoError(t, err)

	out, err := svc.Analyze(context.Background(), AnalyzeInput{
		Image:  img,
		UserID: "kid-1",
		Prompt: "friendship",
		Items:  []models.PlacedItem{{ID: "dog-1", LibraryID: "dog"}},
	})
	require.NoError(t, err)
	assert.Equal(t, caption.Describe(cfg), out.Caption)
	assert.Contains(t, out.Analysis, "Requested focus: friendship")
	assert.Equal(t, fixedNow, out.Timestamp)
	assert.Equal(t, "kid-1", out.UserID)
	queue.AssertExpectations(t)
}

func TestSandboxAnalyze_QueueFailureDoesNotFail(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	queue.On("EnqueueAnalysisRecord", mock.Anything, mock.Anything).Return(errors.New("stopped"))
	svc := newSandboxService(queue, SandboxOptions{})

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Image: pngBytes(t, 10, 10)})
	assert.NoError(t, err)
}

func TestSandboxAnalyze_RejectsImages(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	svc := newSandboxService(queue, SandboxOptions{MaxImageBytes: 200})

	tests := []struct {
		name string
		data []byte
		code string
	}{
		{"empty", nil, apperrors.ErrCodeValidation},
		{"text", []byte("GIF89a not really"), apperrors.ErrCodeValidation},
		{"too large", make([]byte, 201), apperrors.ErrCodeTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), AnalyzeInput{Image: tt.data})
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
	queue.AssertNotCalled(t, "EnqueueAnalysisRecord", mock.Anything, mock.Anything)
}

func TestSandboxAnalyze_Upstream(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	queue.On("EnqueueAnalysisRecord", mock.Anything, mock.Anything).Return(nil)

	var got client.AnalyzeRequest
	svc := newSandboxService(queue, SandboxOptions{Upstream: upstreamFunc(func(_ context.Context, req client.AnalyzeRequest) (*models.SandboxAnalysis, error) {
		got = req
		return &models.SandboxAnalysis{Caption: "remote caption", Analysis: "remote analysis"}, nil
	})})

	out, err := svc.Analyze(context.Background(), AnalyzeInput{Image: pngBytes(t, 8, 8), UserID: "u", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "remote caption", out.Caption)
	assert.Equal(t, fixedNow, out.Timestamp)
	assert.Equal(t, "u", got.UserID)
	assert.Equal(t, "p", got.Prompt)
}

func TestSandboxAnalyze_UpstreamDown(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	svc := newSandboxService(queue, SandboxOptions{Upstream: upstreamFunc(func(context.Context, client.AnalyzeRequest) (*models.SandboxAnalysis, error) {
		return nil, errors.New("connection refused")
	})})

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Image: pngBytes(t, 8, 8)})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUnavailable, appErr.Code)
}

func TestSandboxHistory(t *testing.T) {
	repo := new(mocks.MockAnalysisRepository)
	svc := NewSandboxService(repo, new(mocks.MockJobQueue), nil, SandboxOptions{})
	repo.On("List", mock.Anything, models.AnalysisFilter{UserID: "kid", Limit: 5}).
		Return([]models.SandboxAnalysis{{Caption: "a"}}, nil)

	out, err := svc.History(context.Background(), models.AnalysisFilter{UserID: " kid ", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
