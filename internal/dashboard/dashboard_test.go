package dashboard_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sandplay/internal/dashboard"
	"github.com/vytor/sandplay/internal/models"
)

type fakeFetcher struct {
	summary  *models.AnalysisSummary
	feedback *models.Feedback
	err      error
	calls    int
}

func (f *fakeFetcher) FetchSummary(context.Context) (*models.AnalysisSummary, error) {
	f.calls++
	return f.summary, f.err
}

func (f *fakeFetcher) FetchFeedback(context.Context) (*models.Feedback, error) {
	f.calls++
	return f.feedback, f.err
}

func sampleSummary() models.AnalysisSummary {
	return models.AnalysisSummary{
		OverallStats: models.OverallStats{TotalQuestions: 20, TotalCorrect: 14, OverallAccuracy: 70},
		DataPoints:   20,
		Emotions:     []string{"happy", "sad", "angry"},
		Matrix: [][]int{
			{5, 0, 1},
			{2, 4, 0},
			{0, 0, 5},
		},
		BaseVector:          []float64{100, 100, 100},
		UserDirectionVector: []float64{83.3, 66.7, 100},
		Accuracies:          map[string]float64{"happy": 83.3, "sad": 59.9, "angry": 60.0},
		Totals:              map[string]int{"happy": 6, "sad": 6, "angry": 5},
		Corrects:            map[string]int{"happy": 5, "sad": 4, "angry": 5},
	}
}

func TestNeedsTraining_Boundary(t *testing.T) {
	assert.True(t, dashboard.NeedsTraining(59.9))
	assert.False(t, dashboard.NeedsTraining(60.0))
	assert.Equal(t, dashboard.BandPoor, dashboard.BandFor(59.9))
	assert.Equal(t, dashboard.BandFair, dashboard.BandFor(60))
	assert.Equal(t, dashboard.BandGood, dashboard.BandFor(80))
}

func TestBuildView(t *testing.T) {
	v := dashboard.BuildView(sampleSummary())

	require.Len(t, v.Cards, 4)
	assert.Equal(t, "70.0%", v.Cards[2].Value)
	assert.Equal(t, "20", v.Cards[3].Value)

	assert.Equal(t, dashboard.CellCorrect, v.Matrix[0][0].Kind)
	assert.Equal(t, dashboard.CellEmpty, v.Matrix[0][1].Kind)
	assert.Equal(t, dashboard.CellConfused, v.Matrix[0][2].Kind)
	assert.Equal(t, dashboard.CellConfused, v.Matrix[1][0].Kind)

	require.Len(t, v.Radar, 3)
	assert.Equal(t, 66.7, v.Radar[1].User)

	require.Len(t, v.Accuracy, 3)
	assert.False(t, v.Accuracy[0].NeedsTraining)
	assert.True(t, v.Accuracy[1].NeedsTraining)
	assert.False(t, v.Accuracy[2].NeedsTraining)
	assert.Equal(t, "59.9%", v.Accuracy[1].Display)

	require.Len(t, v.Recommendations, 1)
	assert.Contains(t, v.Recommendations[0], "sad")
	assert.False(t, v.AllClear)
}

func TestBuildView_AllClear(t *testing.T) {
	s := sampleSummary()
	s.Accuracies["sad"] = 60
	v := dashboard.BuildView(s)
	assert.True(t, v.AllClear)
	require.Len(t, v.Recommendations, 1)
	assert.Contains(t, v.Recommendations[0], "Great job")
}

func TestLoader_States(t *testing.T) {
	ctx := context.Background()

	failing := &fakeFetcher{err: errors.New("backend unreachable")}
	l := dashboard.NewLoader(failing, failing)
	st := l.Load(ctx)
	assert.Equal(t, dashboard.StatusError, st.Status)
	assert.Equal(t, "backend unreachable", st.Err)

	// Retry is a fresh fetch.
	s := sampleSummary()
	failing.err = nil
	failing.summary = &s
	st = l.Load(ctx)
	assert.Equal(t, dashboard.StatusPopulated, st.Status)
	require.NotNil(t, st.View)
	assert.Equal(t, 2, failing.calls)

	empty := &fakeFetcher{summary: &models.AnalysisSummary{}}
	st = dashboard.NewLoader(empty, empty).Load(ctx)
	assert.Equal(t, dashboard.StatusEmpty, st.Status)
	assert.Nil(t, st.View)
}

func TestFeedbackView(t *testing.T) {
	f := &fakeFetcher{feedback: &models.Feedback{
		Feedback:        "Keep going",
		OverallAccuracy: 75,
		TotalQuestions:  8,
		Stats: map[string]models.FeedbackStat{
			"sad":   {Correct: 1, Wrong: 3},
			"happy": {Correct: 4, Wrong: 0},
		},
	}}
	st := dashboard.NewLoader(f, f).LoadFeedback(context.Background())
	require.Equal(t, dashboard.StatusPopulated, st.Status)

	v := st.View
	assert.Equal(t, "75.0%", v.Overall)
	assert.Equal(t, dashboard.BandFair, v.OverallBand)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "happy", v.Rows[0].Emotion)
	assert.Equal(t, 100.0, v.Rows[0].Accuracy)
	assert.Equal(t, "25.0%", v.Rows[1].Display)
	assert.Equal(t, dashboard.BandPoor, v.Rows[1].Band)
}

func TestRender(t *testing.T) {
	v := dashboard.BuildView(sampleSummary())
	var buf bytes.Buffer
	require.NoError(t, dashboard.Render(&buf, dashboard.State{Status: dashboard.StatusPopulated, View: &v}))
	out := buf.String()
	assert.Contains(t, out, "Needs training")
	assert.Contains(t, out, "[5]")

	buf.Reset()
	require.NoError(t, dashboard.Render(&buf, dashboard.State{Status: dashboard.StatusEmpty}))
	assert.Contains(t, buf.String(), "No data")
}

func TestBuildView_FlagsFromCountsNotRoundedAccuracy(t *testing.T) {
	s := models.AnalysisSummary{
		OverallStats: models.OverallStats{TotalQuestions: 2000, TotalCorrect: 1199, OverallAccuracy: 60},
		DataPoints:   2000,
		Emotions:     []string{"happy"},
		Matrix:       [][]int{{1199}},
		Accuracies:   map[string]float64{"happy": 60.0},
		Totals:       map[string]int{"happy": 2000},
		Corrects:     map[string]int{"happy": 1199},
	}
	v := dashboard.BuildView(s)

	require.Len(t, v.Accuracy, 1)
	assert.Equal(t, 60.0, v.Accuracy[0].Accuracy)
	assert.True(t, v.Accuracy[0].NeedsTraining)
	assert.Equal(t, dashboard.BandPoor, v.Accuracy[0].Band)
	assert.Len(t, v.Recommendations, 1)
	assert.False(t, v.AllClear)
}
