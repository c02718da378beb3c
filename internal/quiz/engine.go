// Package quiz implements the emotion recognition game: a bounded round of
// random multiple-choice questions, scored and flushed as one batch.
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/models"
)

// OptionsPerQuestion is the number of answer buttons shown for a question.
const OptionsPerQuestion = 4

// DefaultQuestionsPerRound matches the five-image round of the game.
const DefaultQuestionsPerRound = 5

type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhasePlaying       Phase = "playing"
	PhaseRoundComplete Phase = "round_complete"
)

var (
	ErrQuestionUnavailable = errors.New("failed to load image, please try again")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrNotAnswered         = errors.New("question not answered yet")
	ErrNoQuestion          = errors.New("no question in progress")
	ErrInvalidOption       = errors.New("selection is not one of the options")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
)

// Config parameterizes an Engine. Rand is required so callers decide between
// a seeded source for tests and a time-seeded one in production.
type Config struct {
	Labels            emotion.Set
	QuestionsPerRound int
	FailureRate       float64
	Rand              *rand.Rand
}

// State is a snapshot of an engine. Count is the number of recorded answers
// in the current round.
type State struct {
	Phase    Phase                 `json:"phase"`
	Round    int                   `json:"round"`
	Score    int                   `json:"score"`
	Count    int                   `json:"count"`
	Total    int                   `json:"total"`
	Current  *models.Question      `json:"question,omitempty"`
	Answered bool                  `json:"answered"`
	Selected *emotion.Emotion      `json:"selected,omitempty"`
	Results  []models.AnswerRecord `json:"results"`
	Err      string                `json:"error,omitempty"`
}

// Engine is the round state machine: idle -> playing -> round_complete -> idle.
// It is not safe for concurrent use; Runner adds locking and pacing.
type Engine struct {
	cfg   Config
	state State
}

// NewEngine validates cfg and returns an engine waiting for round 1.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Labels.Valid(); err != nil {
		return nil, err
	}
	if cfg.QuestionsPerRound <= 0 {
		return nil, fmt.Errorf("questions per round must be positive, got %d", cfg.QuestionsPerRound)
	}
	if cfg.FailureRate < 0 || cfg.FailureRate >= 1 {
		return nil, fmt.Errorf("failure rate must be in [0, 1), got %v", cfg.FailureRate)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		cfg: cfg,
		state: State{
			Phase: PhaseIdle,
			Round: 1,
			Total: cfg.QuestionsPerRound,
		},
	}, nil
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	s := e.state
	s.Results = append([]models.AnswerRecord(nil), e.state.Results...)
	if e.state.Current != nil {
		q := *e.state.Current
		q.Options = append([]emotion.Emotion(nil), q.Options...)
		s.Current = &q
	}
	return s
}

// Labels returns the label set questions are drawn from.
func (e *Engine) Labels() emotion.Set {
	return e.cfg.Labels
}

// StartRound resets score and history and presents the first question.
func (e *Engine) StartRound() error {
	if e.state.Phase != PhaseIdle {
		return ErrWrongPhase
	}
	e.state.Phase = PhasePlaying
	e.state.Score = 0
	e.state.Count = 0
	e.state.Results = nil
	return e.GenerateQuestion()
}

// GenerateQuestion draws the next question. With probability FailureRate it
// leaves the engine without a question and returns ErrQuestionUnavailable;
// calling it again is the retry.
func (e *Engine) GenerateQuestion() error {
	if e.state.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	e.state.Current = nil
	e.state.Answered = false
	e.state.Selected = nil
	e.state.Err = ""

	if e.cfg.FailureRate > 0 && e.cfg.Rand.Float64() < e.cfg.FailureRate {
		e.state.Err = ErrQuestionUnavailable.Error()
		return ErrQuestionUnavailable
	}

	q := NewQuestion(e.cfg.Labels, e.cfg.Rand)
	e.state.Current = &q
	return nil
}

// Retry regenerates a question after a failed generation. With a question
// already present it changes nothing and reports false.
func (e *Engine) Retry() (bool, error) {
	if e.state.Phase == PhasePlaying && e.state.Current != nil {
		return false, nil
	}
	if err := e.GenerateQuestion(); err != nil {
		return false, err
	}
	return true, nil
}

// SubmitAnswer records the selection for the current question. Only the
// first call per question has an effect; later ones return ErrAlreadyAnswered.
func (e *Engine) SubmitAnswer(selected emotion.Emotion) (bool, error) {
	if e.state.Phase != PhasePlaying {
		return false, ErrWrongPhase
	}
	q := e.state.Current
	if q == nil {
		return false, ErrNoQuestion
	}
	if e.state.Answered {
		return false, ErrAlreadyAnswered
	}
	if !containsOption(q.Options, selected) {
		return false, ErrInvalidOption
	}

	correct := selected == q.CorrectAnswer
	if correct {
		e.state.Score++
	}
	sel := selected
	e.record(models.AnswerRecord{Correct: q.CorrectAnswer, Selected: &sel})
	return correct, nil
}

// Timeout records an unanswered question.
func (e *Engine) Timeout() error {
	if e.state.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if e.state.Current == nil {
		return ErrNoQuestion
	}
	if e.state.Answered {
		return ErrAlreadyAnswered
	}
	e.record(models.AnswerRecord{Correct: e.state.Current.CorrectAnswer})
	return nil
}

func (e *Engine) record(rec models.AnswerRecord) {
	e.state.Answered = true
	e.state.Selected = rec.Selected
	e.state.Results = append(e.state.Results, rec)
	e.state.Count = len(e.state.Results)
}

// Advance moves past an answered question. When the round limit is reached
// the engine enters round_complete and returns the batch to flush; otherwise
// the next question is generated and the result is nil.
func (e *Engine) Advance() (*models.RoundResult, error) {
	if e.state.Phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	if !e.state.Answered {
		return nil, ErrNotAnswered
	}
	if e.state.Count >= e.cfg.QuestionsPerRound {
		e.state.Phase = PhaseRoundComplete
		e.state.Current = nil
		e.state.Answered = false
		e.state.Selected = nil
		return &models.RoundResult{
			Round:   e.state.Round,
			Results: append([]models.AnswerRecord(nil), e.state.Results...),
		}, nil
	}
	if err := e.GenerateQuestion(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Continue leaves round_complete for the next round.
func (e *Engine) Continue() error {
	if e.state.Phase != PhaseRoundComplete {
		return ErrWrongPhase
	}
	e.state.Round++
	e.state.Phase = PhaseIdle
	e.state.Results = nil
	e.state.Count = 0
	e.state.Score = 0
	return nil
}

// NewQuestion picks a target uniformly from labels, draws distinct
// distractors from the remaining labels and inserts the target at a random
// slot.
func NewQuestion(labels emotion.Set, rnd *rand.Rand) models.Question {
	target := labels[rnd.Intn(len(labels))]
	rest := labels.Without(target)

	n := OptionsPerQuestion - 1
	if n > len(rest) {
		n = len(rest)
	}
	options := make([]emotion.Emotion, 0, n+1)
	for _, i := range rnd.Perm(len(rest))[:n] {
		options = append(options, rest[i])
	}

	slot := rnd.Intn(len(options) + 1)
	options = append(options, "")
	copy(options[slot+1:], options[slot:])
	options[slot] = target

	return models.Question{Options: options, CorrectAnswer: target}
}

func containsOption(options []emotion.Emotion, e emotion.Emotion) bool {
	for _, o := range options {
		if o == e {
			return true
		}
	}
	return false
}
