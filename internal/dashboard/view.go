// Package dashboard turns the stored summaries into display-ready views.
// It does no aggregation of its own beyond formatting and the training
// threshold.
package dashboard

import (
	"fmt"
	"sort"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/models"
)

// TrainingThreshold is the accuracy below which a label needs training.
const TrainingThreshold = 60.0

const allClear = "Great job! All emotions have accuracy above 60%. Keep practicing to maintain your skills!"

// NeedsTraining reports whether accuracy (a percentage) is below the
// threshold. Exactly 60 is not flagged.
func NeedsTraining(accuracy float64) bool {
	return accuracy < TrainingThreshold
}

type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// BandFor maps an accuracy to the color band used by the views.
func BandFor(accuracy float64) Band {
	switch {
	case accuracy >= 80:
		return BandGood
	case accuracy >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

// exactAccuracy recomputes a label's accuracy from its counts. Accuracies
// are rounded for display and must not decide the threshold.
func exactAccuracy(s models.AnalysisSummary, e string) float64 {
	if n := s.Totals[e]; n > 0 {
		return float64(s.Corrects[e]) / float64(n) * 100
	}
	return s.Accuracies[e]
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type CellKind string

const (
	CellCorrect  CellKind = "correct"
	CellConfused CellKind = "confused"
	CellEmpty    CellKind = "empty"
)

type Cell struct {
	Value int      `json:"value"`
	Kind  CellKind `json:"kind"`
}

type RadarPoint struct {
	Emotion string  `json:"emotion"`
	Base    float64 `json:"base"`
	User    float64 `json:"user"`
}

type AccuracyRow struct {
	Emotion       string  `json:"emotion"`
	Accuracy      float64 `json:"accuracy"`
	Display       string  `json:"display"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	Band          Band    `json:"band"`
	NeedsTraining bool    `json:"needs_training"`
}

// View is the populated dashboard.
type View struct {
	Cards           []StatCard    `json:"cards"`
	Emotions        []string      `json:"emotions"`
	Matrix          [][]Cell      `json:"matrix"`
	Radar           []RadarPoint  `json:"radar"`
	Accuracy        []AccuracyRow `json:"accuracy"`
	Recommendations []string      `json:"recommendations"`
	AllClear        bool          `json:"all_clear"`
}

// BuildView formats a summary. Vectors shorter than the label list leave the
// missing radar values at zero.
func BuildView(s models.AnalysisSummary) View {
	v := View{
		Cards: []StatCard{
			{Title: "Total Questions", Value: fmt.Sprint(s.OverallStats.TotalQuestions)},
			{Title: "Correct Answers", Value: fmt.Sprint(s.OverallStats.TotalCorrect)},
			{Title: "Overall Accuracy", Value: percent(s.OverallStats.OverallAccuracy)},
			{Title: "Data Points", Value: fmt.Sprint(s.DataPoints)},
		},
		Emotions: append([]string(nil), s.Emotions...),
	}

	for i, row := range s.Matrix {
		cells := make([]Cell, len(row))
		for j, n := range row {
			kind := CellEmpty
			switch {
			case i == j:
				kind = CellCorrect
			case n > 0:
				kind = CellConfused
			}
			cells[j] = Cell{Value: n, Kind: kind}
		}
		v.Matrix = append(v.Matrix, cells)
	}

	for i, e := range s.Emotions {
		p := RadarPoint{Emotion: e}
		if i < len(s.BaseVector) {
			p.Base = s.BaseVector[i]
		}
		if i < len(s.UserDirectionVector) {
			p.User = s.UserDirectionVector[i]
		}
		v.Radar = append(v.Radar, p)

		acc, exact := s.Accuracies[e], exactAccuracy(s, e)
		row := AccuracyRow{
			Emotion:       e,
			Accuracy:      acc,
			Display:       percent(acc),
			Correct:       s.Corrects[e],
			Total:         s.Totals[e],
			Band:          BandFor(exact),
			NeedsTraining: NeedsTraining(exact),
		}
		v.Accuracy = append(v.Accuracy, row)
		if row.NeedsTraining {
			v.Recommendations = append(v.Recommendations, fmt.Sprintf(
				"%s: Your accuracy is %s. Consider practicing more with %s expressions.", e, row.Display, e))
		}
	}

	if len(v.Recommendations) == 0 {
		v.AllClear = true
		v.Recommendations = []string{allClear}
	}
	return v
}

type FeedbackRow struct {
	Emotion  string  `json:"emotion"`
	Emoji    string  `json:"emoji"`
	Correct  int     `json:"correct"`
	Wrong    int     `json:"wrong"`
	Accuracy float64 `json:"accuracy"`
	Display  string  `json:"display"`
	Band     Band    `json:"band"`
}

// FeedbackView is the progress summary shown after playing.
type FeedbackView struct {
	Feedback       string        `json:"feedback"`
	Overall        string        `json:"overall"`
	OverallBand    Band          `json:"overall_band"`
	TotalQuestions int           `json:"total_questions"`
	Rows           []FeedbackRow `json:"rows"`
}

// BuildFeedbackView formats feedback with one row per label, sorted by name.
func BuildFeedbackView(f models.Feedback) FeedbackView {
	v := FeedbackView{
		Feedback:       f.Feedback,
		Overall:        percent(f.OverallAccuracy),
		OverallBand:    BandFor(f.OverallAccuracy),
		TotalQuestions: f.TotalQuestions,
	}

	labels := make([]string, 0, len(f.Stats))
	for k := range f.Stats {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	for _, l := range labels {
		st := f.Stats[l]
		var acc float64
		if n := st.Correct + st.Wrong; n > 0 {
			acc = float64(st.Correct) / float64(n) * 100
		}
		v.Rows = append(v.Rows, FeedbackRow{
			Emotion:  l,
			Emoji:    emotion.Emoji(emotion.Emotion(l)),
			Correct:  st.Correct,
			Wrong:    st.Wrong,
			Accuracy: acc,
			Display:  percent(acc),
			Band:     BandFor(acc),
		})
	}
	return v
}
