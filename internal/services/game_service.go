package services

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/jobs"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/quiz"
)

// GameSnapshot is a quiz session as the API renders it.
type GameSnapshot struct {
	ID       string   `json:"id"`
	PlayerID string   `json:"player_id,omitempty"`
	Labels   []string `json:"labels"`
	quiz.Snapshot
}

// AnswerOutcome is the reply to an answer.
type AnswerOutcome struct {
	Correct bool         `json:"correct"`
	Game    GameSnapshot `json:"game"`
}

type CreateGameInput struct {
	Labels   string `json:"labels" validate:"omitempty,oneof=basic extended"`
	PlayerID string `json:"player_id" validate:"max=64"`
}

// GameService holds in-memory quiz sessions
type GameService interface {
	Create(ctx context.Context, in CreateGameInput) (*GameSnapshot, error)
	Get(ctx context.Context, id string) (*GameSnapshot, error)
	Start(ctx context.Context, id string) (*GameSnapshot, error)
	Retry(ctx context.Context, id string) (*GameSnapshot, error)
	Answer(ctx context.Context, id string, selected emotion.Emotion) (*AnswerOutcome, error)
	Continue(ctx context.Context, id string) (*GameSnapshot, error)
	Delete(ctx context.Context, id string) error
	Close()
}

type GameOptions struct {
	Labels            emotion.Set
	QuestionsPerRound int
	FailureRate       float64
	DisplayDelay      time.Duration
	AnswerTimeout     time.Duration
	// IdleTTL drops sessions nobody touched for that long; zero means
	// DefaultIdleTTL.
	IdleTTL time.Duration
	// Clock, Now and NewRand are overridden in tests.
	Clock   quiz.Clock
	Now     func() time.Time
	NewRand func() *rand.Rand
}

type gameSession struct {
	lastUse
	id       string
	playerID string
	labels   emotion.Set
	runner   *quiz.Runner
}

type gameService struct {
	jobQueue jobs.JobQueue
	metrics  *metrics.Manager
	opts     GameOptions

	mu       sync.RWMutex
	sessions map[string]*gameSession
}

// NewGameService creates a new GameService. Finished rounds are stored
// through the job queue.
func NewGameService(jobQueue jobs.JobQueue, m *metrics.Manager, opts GameOptions) GameService {
	if len(opts.Labels) == 0 {
		opts.Labels = emotion.Basic
	}
	if opts.QuestionsPerRound <= 0 {
		opts.QuestionsPerRound = 5
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	return &gameService{
		jobQueue: jobQueue,
		metrics:  m,
		opts:     opts,
		sessions: make(map[string]*gameSession),
	}
}

func (s *gameService) Create(ctx context.Context, in CreateGameInput) (*GameSnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("games")

	labels := s.opts.Labels
	if in.Labels != "" {
		set, err := emotion.ParseSet(in.Labels)
		if err != nil {
			return nil, errors.NewValidationError("labels", err.Error())
		}
		labels = set
	}

	engine, err := quiz.NewEngine(quiz.Config{
		Labels:            labels,
		QuestionsPerRound: s.opts.QuestionsPerRound,
		FailureRate:       s.opts.FailureRate,
		Rand:              s.opts.NewRand(),
	})
	if err != nil {
		log.Error("failed to create quiz engine: %v", err)
		return nil, errors.NewInternalError(err)
	}

	sess := &gameSession{id: uuid.NewString(), playerID: in.PlayerID, labels: labels}
	sess.runner = quiz.NewRunner(engine, quiz.RunnerOptions{
		DisplayDelay:  s.opts.DisplayDelay,
		AnswerTimeout: s.opts.AnswerTimeout,
		Clock:         s.opts.Clock,
		Logger:        logger.Default().WithField("game_id", sess.id),
		Submitter:     s.submitter(sess),
	})

	now := s.opts.Now()
	sess.touch(now)

	s.mu.Lock()
	expired := s.expireLocked(now)
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	for _, old := range expired {
		old.runner.Close()
	}
	if len(expired) > 0 {
		log.Info("dropped %d idle games", len(expired))
	}
	s.metrics.SetGamesActive(n)

	log.Info("game created: id=%s, labels=%d, player=%s", sess.id, len(labels), in.PlayerID)
	snap := sess.snapshot(sess.runner.Snapshot())
	return &snap, nil
}

func (s *gameService) submitter(sess *gameSession) quiz.Submitter {
	return quiz.SubmitterFunc(func(ctx context.Context, result models.RoundResult) error {
		return s.jobQueue.SaveRound(ctx, models.Round{
			Number:   result.Round,
			PlayerID: sess.playerID,
			Results:  result.Results,
		})
	})
}

func (sess *gameSession) snapshot(snap quiz.Snapshot) GameSnapshot {
	return GameSnapshot{ID: sess.id, PlayerID: sess.playerID, Labels: sess.labels.Strings(), Snapshot: snap}
}

func (s *gameService) session(id string) (*gameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("game", id)
	}
	sess.touch(s.opts.Now())
	return sess, nil
}

// expireLocked removes sessions idle for longer than IdleTTL and returns them
// for closing outside the lock.
func (s *gameService) expireLocked(now time.Time) []*gameSession {
	var out []*gameSession
	for id, sess := range s.sessions {
		if sess.idleFor(now) > s.opts.IdleTTL {
			delete(s.sessions, id)
			out = append(out, sess)
		}
	}
	return out
}

func (s *gameService) Get(ctx context.Context, id string) (*GameSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	snap := sess.snapshot(sess.runner.Snapshot())
	return &snap, nil
}

func (s *gameService) Start(ctx context.Context, id string) (*GameSnapshot, error) {
	return s.transition(ctx, id, "start", (*quiz.Runner).Start)
}

func (s *gameService) Retry(ctx context.Context, id string) (*GameSnapshot, error) {
	return s.transition(ctx, id, "retry", (*quiz.Runner).Retry)
}

func (s *gameService) Continue(ctx context.Context, id string) (*GameSnapshot, error) {
	return s.transition(ctx, id, "continue", (*quiz.Runner).Continue)
}

func (s *gameService) transition(ctx context.Context, id, name string, fn func(*quiz.Runner) (quiz.Snapshot, error)) (*GameSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	snap, err := fn(sess.runner)
	if err != nil && !stderrors.Is(err, quiz.ErrQuestionUnavailable) {
		logger.FromContext(ctx).WithPrefix("games").Debug("%s rejected for game %s: %v", name, id, err)
		return nil, quizError(err)
	}
	out := sess.snapshot(snap)
	return &out, nil
}

func (s *gameService) Answer(ctx context.Context, id string, selected emotion.Emotion) (*AnswerOutcome, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	correct, snap, err := sess.runner.Answer(selected)
	if err != nil {
		return nil, quizError(err)
	}
	return &AnswerOutcome{Correct: correct, Game: sess.snapshot(snap)}, nil
}

// quizError maps engine rejections to API errors. A failed question load is
// part of the state and never reaches here.
func quizError(err error) error {
	switch {
	case stderrors.Is(err, quiz.ErrInvalidOption):
		return errors.NewValidationError("selected", err.Error())
	case stderrors.Is(err, quiz.ErrAlreadyAnswered),
		stderrors.Is(err, quiz.ErrNotAnswered),
		stderrors.Is(err, quiz.ErrNoQuestion),
		stderrors.Is(err, quiz.ErrWrongPhase):
		return errors.NewConflictError(err)
	default:
		return errors.NewInternalError(err)
	}
}

func (s *gameService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("game", id)
	}
	sess.runner.Close()
	s.metrics.SetGamesActive(n)
	logger.FromContext(ctx).WithPrefix("games").Info("game deleted: id=%s", id)
	return nil
}

// Close stops every session and waits for pending round submissions.
func (s *gameService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*gameSession)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.runner.Close()
	}
	s.metrics.SetGamesActive(0)
}
