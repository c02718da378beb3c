package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
)

// Submitter receives the finished round. It is called once per round.
type Submitter interface {
	SubmitRound(ctx context.Context, result models.RoundResult) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, result models.RoundResult) error

func (f SubmitterFunc) SubmitRound(ctx context.Context, result models.RoundResult) error {
	return f(ctx, result)
}

// Timer is the part of *time.Timer the runner needs.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RunnerOptions configure pacing and submission of a Runner.
type RunnerOptions struct {
	// DisplayDelay is how long the answer feedback stays before advancing.
	DisplayDelay time.Duration
	// AnswerTimeout records an unanswered question after this long; zero disables it.
	AnswerTimeout time.Duration
	Submitter     Submitter
	Clock         Clock
	Logger        *logger.Logger
	// SubmitTimeout bounds the outbound write of a finished round.
	SubmitTimeout time.Duration
}

// Snapshot is what a view renders.
type Snapshot struct {
	State
	Submitting bool   `json:"submitting"`
	LastSubmit string `json:"last_submit_error,omitempty"`
}

// Runner drives an Engine the way the game screen does: answers are shown
// for DisplayDelay before the next question, and the finished round is
// submitted once without blocking the player.
type Runner struct {
	mu      sync.Mutex
	engine  *Engine
	opts    RunnerOptions
	log     *logger.Logger
	pending Timer

	// epoch invalidates timers scheduled for an earlier question.
	epoch      uint64
	submitting bool
	lastErr    string
	wg         sync.WaitGroup
	closed     bool
}

// NewRunner wraps engine. Nil options fall back to the real clock and the
// default logger.
func NewRunner(engine *Engine, opts RunnerOptions) *Runner {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 15 * time.Second
	}
	return &Runner{
		engine: engine,
		opts:   opts,
		log:    opts.Logger.WithPrefix("quiz"),
	}
}

// Snapshot returns the current engine state plus submission status.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Runner) snapshotLocked() Snapshot {
	return Snapshot{State: r.engine.State(), Submitting: r.submitting, LastSubmit: r.lastErr}
}

// Start begins the round. A simulated load failure is returned as
// ErrQuestionUnavailable and can be retried with Retry.
func (r *Runner) Start() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.engine.StartRound()
	if err == nil {
		r.armTimeoutLocked()
	}
	return r.snapshotLocked(), err
}

// Retry regenerates the question after a failed load. While a question is
// shown it leaves pending timers alone.
func (r *Runner) Retry() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	generated, err := r.engine.Retry()
	if generated {
		r.armTimeoutLocked()
	}
	return r.snapshotLocked(), err
}

// Answer records the selection and schedules the advance.
func (r *Runner) Answer(selected emotion.Emotion) (bool, Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	correct, err := r.engine.SubmitAnswer(selected)
	if err != nil {
		return false, r.snapshotLocked(), err
	}
	r.log.Debug("answer recorded: selected=%s correct=%t", selected, correct)
	r.scheduleLocked(r.opts.DisplayDelay, r.advance)
	return correct, r.snapshotLocked(), nil
}

// Continue moves from round_complete to the next idle round. It does not
// wait for the round submission.
func (r *Runner) Continue() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.engine.Continue()
	return r.snapshotLocked(), err
}

// Close cancels pending timers and waits for an in-flight submission.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.stopPendingLocked()
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) armTimeoutLocked() {
	if r.opts.AnswerTimeout <= 0 {
		return
	}
	r.scheduleLocked(r.opts.AnswerTimeout, r.timeout)
}

func (r *Runner) scheduleLocked(d time.Duration, fn func(epoch uint64)) {
	r.stopPendingLocked()
	r.epoch++
	epoch := r.epoch
	r.pending = r.opts.Clock.AfterFunc(d, func() { fn(epoch) })
}

func (r *Runner) stopPendingLocked() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Runner) timeout(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || epoch != r.epoch {
		return
	}
	r.pending = nil
	if err := r.engine.Timeout(); err != nil {
		return
	}
	r.log.Debug("question timed out")
	r.scheduleLocked(r.opts.DisplayDelay, r.advance)
}

func (r *Runner) advance(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || epoch != r.epoch {
		return
	}
	r.pending = nil

	result, err := r.engine.Advance()
	switch {
	case errors.Is(err, ErrQuestionUnavailable):
		r.log.Warn("next question failed to load")
		return
	case err != nil:
		r.log.Warn("advance rejected: %v", err)
		return
	case result == nil:
		r.armTimeoutLocked()
		return
	}

	r.log.Info("round %d complete: score=%d/%d", result.Round, r.engine.State().Score, len(result.Results))
	if r.opts.Submitter == nil {
		return
	}
	r.submitting = true
	r.lastErr = ""
	r.wg.Add(1)
	go r.submit(*result)
}

func (r *Runner) submit(result models.RoundResult) {
	defer r.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.SubmitTimeout)
	defer cancel()
	ctx = logger.NewContext(ctx, r.log)

	err := r.opts.Submitter.SubmitRound(ctx, result)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitting = false
	if err != nil {
		r.lastErr = err.Error()
		r.log.Error("error saving round %d results: %v", result.Round, err)
		return
	}
	r.log.Debug("round %d results saved", result.Round)
}
