package dashboard

import (
	"context"

	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
)

type Status string

const (
	StatusLoading   Status = "loading"
	StatusError     Status = "error"
	StatusEmpty     Status = "empty"
	StatusPopulated Status = "populated"
)

// SummaryFetcher reads the precomputed summary.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context) (*models.AnalysisSummary, error)
}

// FeedbackFetcher reads the feedback payload.
type FeedbackFetcher interface {
	FetchFeedback(ctx context.Context) (*models.Feedback, error)
}

type State struct {
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
	View   *View  `json:"view,omitempty"`
}

type FeedbackState struct {
	Status Status        `json:"status"`
	Err    string        `json:"error,omitempty"`
	View   *FeedbackView `json:"view,omitempty"`
}

// Loader issues one read per Load. Retrying is calling Load again.
type Loader struct {
	summaries SummaryFetcher
	feedback  FeedbackFetcher
}

func NewLoader(summaries SummaryFetcher, feedback FeedbackFetcher) *Loader {
	return &Loader{summaries: summaries, feedback: feedback}
}

// Load fetches the summary and classifies the outcome.
func (l *Loader) Load(ctx context.Context) State {
	log := logger.FromContext(ctx)
	s, err := l.summaries.FetchSummary(ctx)
	if err != nil {
		log.Warn("summary fetch failed: %v", err)
		return State{Status: StatusError, Err: err.Error()}
	}
	if s == nil || s.DataPoints == 0 || len(s.Emotions) == 0 {
		return State{Status: StatusEmpty}
	}
	v := BuildView(*s)
	return State{Status: StatusPopulated, View: &v}
}

// LoadFeedback fetches the feedback payload and classifies the outcome.
func (l *Loader) LoadFeedback(ctx context.Context) FeedbackState {
	log := logger.FromContext(ctx)
	f, err := l.feedback.FetchFeedback(ctx)
	if err != nil {
		log.Warn("feedback fetch failed: %v", err)
		return FeedbackState{Status: StatusError, Err: err.Error()}
	}
	if f == nil || f.TotalQuestions == 0 {
		return FeedbackState{Status: StatusEmpty}
	}
	v := BuildFeedbackView(*f)
	return FeedbackState{Status: StatusPopulated, View: &v}
}
