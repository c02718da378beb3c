package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vytor/sandplay/internal/emotion"
	apperrors "github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository/sqlite"
	"github.com/vytor/sandplay/internal/testutil"
	"github.com/vytor/sandplay/internal/testutil/mocks"
)

func pick(e emotion.Emotion) *emotion.Emotion { return &e }

func answers() []models.AnswerRecord {
	return []models.AnswerRecord{
		{Correct: emotion.Happy, Selected: pick(emotion.Happy)},
		{Correct: emotion.Happy, Selected: pick(emotion.Happy)},
		{Correct: emotion.Sad, Selected: pick(emotion.Angry)},
		{Correct: emotion.Sad, Selected: pick(emotion.Sad)},
		{Correct: emotion.Sad, Selected: nil},
		{Correct: emotion.Angry, Selected: pick(emotion.Angry)},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(answers(), emotion.Basic)

	assert.Equal(t, 6, sum.DataPoints)
	assert.Equal(t, emotion.Basic.Strings(), sum.Emotions)
	assert.Equal(t, models.OverallStats{TotalQuestions: 6, TotalCorrect: 4, OverallAccuracy: 66.7}, sum.OverallStats)

	require.Len(t, sum.Matrix, 5)
	for _, row := range sum.Matrix {
		assert.Len(t, row, 5)
	}
	assert.Equal(t, 2, sum.Matrix[0][0])
	assert.Equal(t, 1, sum.Matrix[1][2], "sad mistaken for angry")
	assert.Equal(t, 1, sum.Matrix[1][1])
	assert.Equal(t, 1, sum.Matrix[2][2])

	assert.Equal(t, 100.0, sum.Accuracies["happy"])
	assert.Equal(t, 33.3, sum.Accuracies["sad"])
	assert.Equal(t, 0.0, sum.Accuracies["neutral"])
	assert.Equal(t, 3, sum.Totals["sad"])
	assert.Equal(t, 0, sum.Totals["surprised"])
	assert.Equal(t, []float64{100, 100, 100, 100, 100}, sum.BaseVector)
	assert.Equal(t, []float64{100, 33.3, 100, 0, 0}, sum.UserDirectionVector)
}

func TestSummarize_AppendsExtendedLabelsFromData(t *testing.T) {
	sum := Summarize([]models.AnswerRecord{{Correct: emotion.Fear, Selected: pick(emotion.Disgust)}}, emotion.Basic)
	assert.Equal(t, []string{"happy", "sad", "angry", "surprised", "neutral", "fear", "disgust"}, sum.Emotions)
	assert.Equal(t, 1, sum.Matrix[5][6])
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, emotion.Basic)
	assert.Zero(t, sum.DataPoints)
	assert.Zero(t, sum.OverallStats.OverallAccuracy)
	assert.Len(t, sum.Matrix, 5)
}

func TestBuildFeedback(t *testing.T) {
	fb := BuildFeedback(Summarize(answers(), emotion.Basic))

	assert.Equal(t, 6, fb.TotalQuestions)
	assert.Equal(t, 66.7, fb.OverallAccuracy)
	assert.Equal(t, map[string]models.FeedbackStat{
		"happy": {Correct: 2, Wrong: 0},
		"sad":   {Correct: 1, Wrong: 2},
		"angry": {Correct: 1, Wrong: 0},
	}, fb.Stats)
	assert.Contains(t, fb.Feedback, "You answered 4 of 6 questions correctly (66.7%).")
	assert.Contains(t, fb.Feedback, "You recognize angry faces best")
	assert.Contains(t, fb.Feedback, "Keep practicing sad expressions (33.3%); they were most often mistaken for angry.")
}

func TestBuildFeedback_NoData(t *testing.T) {
	fb := BuildFeedback(Summarize(nil, emotion.Basic))
	assert.Empty(t, fb.Stats)
	assert.Contains(t, fb.Feedback, "No games played yet")
}

func TestBuildFeedback_AllAboveThreshold(t *testing.T) {
	fb := BuildFeedback(Summarize([]models.AnswerRecord{{Correct: emotion.Happy, Selected: pick(emotion.Happy)}}, emotion.Basic))
	assert.Contains(t, fb.Feedback, "above 60%")
}

func TestSaveRound(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	m := metrics.NewManager()
	svc := NewScoreService(repo, emotion.Basic, m)
	ctx := context.Background()

	round := models.Round{Number: 1, Results: answers()}
	repo.On("Insert", ctx, round).Return(int64(9), nil).Once()

	id, err := svc.SaveRound(ctx, round)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	repo.AssertExpectations(t)

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	var saved float64
	for _, mf := range mfs {
		if mf.GetName() == "sandplay_rounds_saved_total" {
			saved = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, saved)
}

func TestSaveRound_Validation(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)

	tests := []struct {
		name  string
		round models.Round
	}{
		{"round zero", models.Round{Number: 0}},
		{"unknown target", models.Round{Number: 1, Results: []models.AnswerRecord{{Correct: "bored"}}}},
		{"unknown selection", models.Round{Number: 1, Results: []models.AnswerRecord{{Correct: emotion.Sad, Selected: pick("bored")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveRound(context.Background(), tt.round)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
		})
	}
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSaveRound_AcceptsExtendedAndTimeouts(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	round := models.Round{Number: 3, Results: []models.AnswerRecord{
		{Correct: emotion.Disgust, Selected: pick(emotion.Fear)},
		{Correct: emotion.Fear},
	}}
	repo.On("Insert", mock.Anything, round).Return(int64(1), nil)

	_, err := svc.SaveRound(context.Background(), round)
	assert.NoError(t, err)
}

func TestSaveRound_RepositoryFailure(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), errors.New("locked"))

	_, err := svc.SaveRound(context.Background(), models.Round{Number: 1})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
}

func TestGetRound_NotFound(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	repo.On("Get", mock.Anything, int64(4)).Return(nil, sql.ErrNoRows)

	_, err := svc.GetRound(context.Background(), 4)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestListRounds(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	filter := models.RoundFilter{PlayerID: "kid", Limit: 10}
	repo.On("List", mock.Anything, filter).Return([]models.Round{{ID: 1}, {ID: 2}}, nil)
	repo.On("Count", mock.Anything, filter).Return(7, nil)

	rounds, total, err := svc.ListRounds(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)
	assert.Equal(t, 7, total)
}

func TestFeedbackFromRepository(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	repo.On("Answers", mock.Anything, models.RoundFilter{}).Return(answers(), nil)

	fb, err := svc.Feedback(context.Background(), models.RoundFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, fb.TotalQuestions)
}

func TestExportExcel(t *testing.T) {
	repo := new(mocks.MockRoundRepository)
	svc := NewScoreService(repo, emotion.Basic, nil)
	rounds := []models.Round{{
		ID: 5, Number: 2, PlayerID: "kid",
		CreatedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		Results:   answers()[2:5],
	}}
	repo.On("List", mock.Anything, models.RoundFilter{Limit: exportPageSize}).Return(rounds, nil)
	repo.On("Answers", mock.Anything, models.RoundFilter{}).Return(answers()[2:5], nil)

	data, err := svc.ExportExcel(context.Background(), models.RoundFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Rounds", "Summary"}, f.GetSheetList())
	rows, err := f.GetRows("Rounds")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Outcome", rows[0][7])
	assert.Equal(t, []string{"5", "2", "kid", "2026-04-01 12:00:00", "1", "sad", "angry", "wrong"}, rows[1])
	assert.Equal(t, "timeout", rows[3][7])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "overall", summary[len(summary)-1][0])
}

func TestBuildFeedback_ThresholdUsesUnroundedAccuracy(t *testing.T) {
	var recs []models.AnswerRecord
	for i := 0; i < 2000; i++ {
		sel := emotion.Happy
		if i >= 1199 {
			sel = emotion.Sad
		}
		recs = append(recs, models.AnswerRecord{Correct: emotion.Happy, Selected: pick(sel)})
	}
	sum := Summarize(recs, emotion.Basic)
	require.Equal(t, 60.0, sum.Accuracies["happy"])

	fb := BuildFeedback(sum)
	assert.Contains(t, fb.Feedback, "Keep practicing happy expressions (60.0%); they were most often mistaken for sad.")
	assert.NotContains(t, fb.Feedback, "great work")
}

func TestExportExcel_IncludesEveryStoredRound(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	svc := NewScoreService(sqlite.NewRoundRepository(db), emotion.Basic, nil)
	ctx := context.Background()

	const stored = 250
	for i := 1; i <= stored; i++ {
		_, err := svc.SaveRound(ctx, models.Round{
			Number:  i,
			Results: []models.AnswerRecord{{Correct: emotion.Happy, Selected: pick(emotion.Happy)}},
		})
		require.NoError(t, err)
	}

	data, err := svc.ExportExcel(ctx, models.RoundFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Rounds")
	require.NoError(t, err)
	assert.Len(t, rows, stored+1)

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	overall := summary[len(summary)-1]
	assert.Equal(t, []string{"overall", "250", "250", "100"}, overall)
}
