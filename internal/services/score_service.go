package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
)

// BaselineAccuracy is the reference value of every label on the radar chart.
const BaselineAccuracy = 100.0

// ScoreService handles stored quiz rounds and the summaries derived from them
type ScoreService interface {
	SaveRound(ctx context.Context, round models.Round) (int64, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	ListRounds(ctx context.Context, filter models.RoundFilter) ([]models.Round, int, error)
	Summary(ctx context.Context, filter models.RoundFilter) (*models.AnalysisSummary, error)
	Feedback(ctx context.Context, filter models.RoundFilter) (*models.Feedback, error)
	ExportExcel(ctx context.Context, filter models.RoundFilter) ([]byte, error)
}

type scoreService struct {
	roundRepo repository.RoundRepository
	labels    emotion.Set
	metrics   *metrics.Manager
}

// NewScoreService creates a new ScoreService. labels fixes the leading order
// of summary rows; other accepted labels found in the data are appended.
func NewScoreService(roundRepo repository.RoundRepository, labels emotion.Set, m *metrics.Manager) ScoreService {
	if len(labels) == 0 {
		labels = emotion.Basic
	}
	return &scoreService{roundRepo: roundRepo, labels: labels, metrics: m}
}

// AcceptedLabels are the labels a stored result may carry.
var AcceptedLabels = emotion.Extended

func validateRound(round models.Round) error {
	if round.Number < 1 {
		return errors.NewValidationError("round", "must be an integer >= 1")
	}
	for i, res := range round.Results {
		if !AcceptedLabels.Contains(res.Correct) {
			return errors.NewValidationError(fmt.Sprintf("results[%d].correct", i), fmt.Sprintf("invalid emotion %q", res.Correct))
		}
		if res.Selected != nil && !AcceptedLabels.Contains(*res.Selected) {
			return errors.NewValidationError(fmt.Sprintf("results[%d].selected", i), fmt.Sprintf("invalid emotion %q", *res.Selected))
		}
	}
	return nil
}

func (s *scoreService) SaveRound(ctx context.Context, round models.Round) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("scores")
	log.Debug("saving round %d with %d results", round.Number, len(round.Results))

	if err := validateRound(round); err != nil {
		return 0, err
	}

	id, err := s.roundRepo.Insert(ctx, round)
	if err != nil {
		log.Error("failed to save round %d: %v", round.Number, err)
		return 0, errors.NewInternalError(err)
	}

	s.metrics.RoundSaved()
	for _, res := range round.Results {
		s.metrics.Answer(string(res.Correct), outcome(res))
	}
	log.Info("round %d saved: id=%d, score=%d/%d", round.Number, id, round.Score(), len(round.Results))
	return id, nil
}

func outcome(res models.AnswerRecord) string {
	switch {
	case res.Selected == nil:
		return "timeout"
	case res.IsCorrect():
		return "correct"
	default:
		return "wrong"
	}
}

func (s *scoreService) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	round, err := s.roundRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("round", id)
		}
		logger.FromContext(ctx).Error("failed to get round: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return round, nil
}

func (s *scoreService) ListRounds(ctx context.Context, filter models.RoundFilter) ([]models.Round, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing rounds: player=%s", filter.PlayerID)

	rounds, err := s.roundRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list rounds: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.roundRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count rounds: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return rounds, total, nil
}

func (s *scoreService) Summary(ctx context.Context, filter models.RoundFilter) (*models.AnalysisSummary, error) {
	answers, err := s.roundRepo.Answers(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load answers: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return Summarize(answers, s.labels), nil
}

// Summarize aggregates answers into the dashboard payload. Rows of the matrix
// are the target label and columns the selected one; timed out answers count
// as wrong but have no column.
func Summarize(answers []models.AnswerRecord, labels emotion.Set) *models.AnalysisSummary {
	labels = summaryLabels(answers, labels)
	n := len(labels)

	sum := &models.AnalysisSummary{
		DataPoints:          len(answers),
		Emotions:            labels.Strings(),
		Matrix:              make([][]int, n),
		BaseVector:          make([]float64, n),
		UserDirectionVector: make([]float64, n),
		Accuracies:          make(map[string]float64, n),
		Totals:              make(map[string]int, n),
		Corrects:            make(map[string]int, n),
	}
	for i := range sum.Matrix {
		sum.Matrix[i] = make([]int, n)
	}

	correct := 0
	for _, a := range answers {
		row := labels.Index(a.Correct)
		if row < 0 {
			continue
		}
		sum.Totals[string(a.Correct)]++
		if a.IsCorrect() {
			sum.Corrects[string(a.Correct)]++
			correct++
		}
		if a.Selected != nil {
			if col := labels.Index(*a.Selected); col >= 0 {
				sum.Matrix[row][col]++
			}
		}
	}

	for i, e := range labels {
		key := string(e)
		if _, ok := sum.Corrects[key]; !ok {
			sum.Corrects[key] = 0
		}
		if _, ok := sum.Totals[key]; !ok {
			sum.Totals[key] = 0
		}
		acc := percent(sum.Corrects[key], sum.Totals[key])
		sum.Accuracies[key] = acc
		sum.BaseVector[i] = BaselineAccuracy
		sum.UserDirectionVector[i] = acc
	}

	sum.OverallStats = models.OverallStats{
		TotalQuestions:  len(answers),
		TotalCorrect:    correct,
		OverallAccuracy: percent(correct, len(answers)),
	}
	return sum
}

func summaryLabels(answers []models.AnswerRecord, base emotion.Set) emotion.Set {
	present := make(map[emotion.Emotion]bool)
	for _, a := range answers {
		present[a.Correct] = true
		if a.Selected != nil {
			present[*a.Selected] = true
		}
	}
	out := append(emotion.Set{}, base...)
	for _, e := range AcceptedLabels {
		if present[e] && !out.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}

// exactAccuracy is the unrounded accuracy of label, used for the 60%
// threshold.
func exactAccuracy(sum *models.AnalysisSummary, label string) float64 {
	if n := sum.Totals[label]; n > 0 {
		return float64(sum.Corrects[label]) / float64(n) * 100
	}
	return sum.Accuracies[label]
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func (s *scoreService) Feedback(ctx context.Context, filter models.RoundFilter) (*models.Feedback, error) {
	sum, err := s.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}
	return BuildFeedback(sum), nil
}

// BuildFeedback turns a summary into the progress view payload and its
// generated paragraph. Only labels that were asked appear in Stats.
func BuildFeedback(sum *models.AnalysisSummary) *models.Feedback {
	fb := &models.Feedback{
		Stats:           make(map[string]models.FeedbackStat),
		OverallAccuracy: sum.OverallStats.OverallAccuracy,
		TotalQuestions:  sum.OverallStats.TotalQuestions,
	}
	for _, label := range sum.Emotions {
		total := sum.Totals[label]
		if total == 0 {
			continue
		}
		fb.Stats[label] = models.FeedbackStat{Correct: sum.Corrects[label], Wrong: total - sum.Corrects[label]}
	}
	fb.Feedback = feedbackText(sum, fb)
	return fb
}

func feedbackText(sum *models.AnalysisSummary, fb *models.Feedback) string {
	if fb.TotalQuestions == 0 {
		return "No games played yet. Play a round of the emotion game to get personalized feedback."
	}

	labels := make([]string, 0, len(fb.Stats))
	for label := range fb.Stats {
		labels = append(labels, label)
	}
	// best first, ties by name
	sort.Slice(labels, func(i, j int) bool {
		ai, aj := sum.Accuracies[labels[i]], sum.Accuracies[labels[j]]
		if ai != aj {
			return ai > aj
		}
		return labels[i] < labels[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "You answered %d of %d questions correctly (%.1f%%). ",
		sum.OverallStats.TotalCorrect, fb.TotalQuestions, fb.OverallAccuracy)

	best := labels[0]
	fmt.Fprintf(&b, "You recognize %s faces best (%.1f%%).", best, sum.Accuracies[best])

	var weak []string
	for _, label := range labels {
		if exactAccuracy(sum, label) < 60 {
			weak = append(weak, label)
		}
	}
	if len(weak) == 0 {
		b.WriteString(" Every emotion you practiced is above 60%, great work!")
		return b.String()
	}
	for _, label := range weak {
		fmt.Fprintf(&b, " Keep practicing %s expressions (%.1f%%)", label, sum.Accuracies[label])
		if confused := mostConfused(sum, label); confused != "" {
			fmt.Fprintf(&b, "; they were most often mistaken for %s", confused)
		}
		b.WriteString(".")
	}
	return b.String()
}

func mostConfused(sum *models.AnalysisSummary, label string) string {
	row := -1
	for i, e := range sum.Emotions {
		if e == label {
			row = i
		}
	}
	if row < 0 {
		return ""
	}
	best, bestCount := "", 0
	for col, count := range sum.Matrix[row] {
		if col != row && count > bestCount {
			best, bestCount = sum.Emotions[col], count
		}
	}
	return best
}

func (s *scoreService) ExportExcel(ctx context.Context, filter models.RoundFilter) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("scores")

	rounds, err := s.exportRounds(ctx, filter)
	if err != nil {
		log.Error("failed to list rounds for export: %v", err)
		return nil, errors.NewInternalError(err)
	}
	answers, err := s.roundRepo.Answers(ctx, filter)
	if err != nil {
		log.Error("failed to load answers for export: %v", err)
		return nil, errors.NewInternalError(err)
	}

	data, err := writeWorkbook(rounds, Summarize(answers, s.labels))
	if err != nil {
		log.Error("failed to build workbook: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("exported %d rounds", len(rounds))
	return data, nil
}

// exportPageSize stays within the repository's default list cap.
const exportPageSize = 200

// exportRounds pages through every matching round unless the filter asks for
// a single page.
func (s *scoreService) exportRounds(ctx context.Context, filter models.RoundFilter) ([]models.Round, error) {
	if filter.Limit > 0 {
		return s.roundRepo.List(ctx, filter)
	}
	page := filter
	page.Limit = exportPageSize
	var out []models.Round
	for {
		rounds, err := s.roundRepo.List(ctx, page)
		if err != nil {
			return nil, err
		}
		out = append(out, rounds...)
		if len(rounds) < exportPageSize {
			return out, nil
		}
		page.Offset += len(rounds)
	}
}

const (
	roundsSheet  = "Rounds"
	summarySheet = "Summary"
)

func writeWorkbook(rounds []models.Round, sum *models.AnalysisSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", roundsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	headers := []any{"Round ID", "Round", "Player", "Played At", "Question", "Correct", "Selected", "Outcome"}
	if err := setRow(f, roundsSheet, 1, headers); err != nil {
		return nil, err
	}
	row := 2
	for _, r := range rounds {
		for i, res := range r.Results {
			selected := ""
			if res.Selected != nil {
				selected = string(*res.Selected)
			}
			values := []any{r.ID, r.Number, r.PlayerID, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				i + 1, string(res.Correct), selected, outcome(res)}
			if err := setRow(f, roundsSheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := setRow(f, summarySheet, 1, []any{"Emotion", "Total", "Correct", "Accuracy %"}); err != nil {
		return nil, err
	}
	for i, label := range sum.Emotions {
		values := []any{label, sum.Totals[label], sum.Corrects[label], sum.Accuracies[label]}
		if err := setRow(f, summarySheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if err := setRow(f, summarySheet, len(sum.Emotions)+2, []any{"overall", sum.OverallStats.TotalQuestions,
		sum.OverallStats.TotalCorrect, sum.OverallStats.OverallAccuracy}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
