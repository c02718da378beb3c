package services

import (
	"context"
	stderrors "errors"
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/sandplay/internal/agent"
	"github.com/vytor/sandplay/internal/compositor"
	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/sandbox"
)

// BoardSnapshot is a board as the API renders it.
type BoardSnapshot struct {
	ID      string              `json:"id"`
	Surface sandbox.Surface     `json:"surface"`
	Items   []models.PlacedItem `json:"items"`
	Gesture sandbox.GestureKind `json:"gesture"`
}

type CreateBoardInput struct {
	Width  float64 `json:"width" validate:"omitempty,gte=200,lte=4000"`
	Height float64 `json:"height" validate:"omitempty,gte=200,lte=4000"`
}

type DropInput struct {
	LibraryID string  `json:"library_id" validate:"required"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type AnalyzeBoardInput struct {
	UserID string `json:"user_id" validate:"max=64"`
	Prompt string `json:"prompt" validate:"max=500"`
}

// BoardService holds in-memory sandbox boards with their chat transcripts
type BoardService interface {
	Library() []sandbox.LibraryGroup
	Create(ctx context.Context, in CreateBoardInput) (*BoardSnapshot, error)
	Get(ctx context.Context, id string) (*BoardSnapshot, error)
	Delete(ctx context.Context, id string) error
	Drop(ctx context.Context, id string, in DropInput) (*models.PlacedItem, error)
	Grab(ctx context.Context, id, itemID string, p sandbox.Point) error
	BeginResize(ctx context.Context, id, itemID string, p sandbox.Point) error
	Pointer(ctx context.Context, id string, p sandbox.Point) (*models.PlacedItem, error)
	Release(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id, itemID string) (bool, error)
	Clear(ctx context.Context, id string) (int, error)
	Export(ctx context.Context, id string) ([]byte, error)
	Snapshot(ctx context.Context, id string) ([]byte, error)
	Analyze(ctx context.Context, id string, in AnalyzeBoardInput) (*models.SandboxAnalysis, error)
	Chat(ctx context.Context, id, text string) (*agent.Message, error)
	Messages(ctx context.Context, id string) ([]agent.Message, error)
}

type BoardOptions struct {
	Library      sandbox.Library
	Assets       compositor.Assets
	SnapshotSize image.Point
	// DefaultSurface is used when a board is created without a size.
	DefaultSurface sandbox.Surface
	AgentMin       time.Duration
	AgentMax       time.Duration
	// AgentSleep replaces the thinking delay in tests.
	AgentSleep func(ctx context.Context, d time.Duration) error
	// IdleTTL drops boards nobody touched for that long; zero means
	// DefaultIdleTTL.
	IdleTTL time.Duration
	Now     func() time.Time
}

type boardSession struct {
	lastUse
	mu    sync.Mutex
	board *sandbox.Board
	conv  *agent.Conversation
}

type boardService struct {
	sandboxSvc SandboxService
	metrics    *metrics.Manager
	opts       BoardOptions

	mu     sync.RWMutex
	boards map[string]*boardSession
}

// NewBoardService creates a new BoardService. Analyses go through sandboxSvc.
func NewBoardService(sandboxSvc SandboxService, m *metrics.Manager, opts BoardOptions) BoardService {
	if opts.Library == nil {
		opts.Library = sandbox.DefaultLibrary()
	}
	if opts.SnapshotSize.X <= 0 || opts.SnapshotSize.Y <= 0 {
		opts.SnapshotSize = image.Pt(800, 600)
	}
	if opts.DefaultSurface.Width <= 0 || opts.DefaultSurface.Height <= 0 {
		opts.DefaultSurface = sandbox.Surface{Width: 800, Height: 600}
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &boardService{
		sandboxSvc: sandboxSvc,
		metrics:    m,
		opts:       opts,
		boards:     make(map[string]*boardSession),
	}
}

func (s *boardService) Library() []sandbox.LibraryGroup {
	return s.opts.Library.Grouped()
}

func (s *boardService) Create(ctx context.Context, in CreateBoardInput) (*BoardSnapshot, error) {
	surface := sandbox.Surface{Width: in.Width, Height: in.Height}
	if surface.Width == 0 {
		surface.Width = s.opts.DefaultSurface.Width
	}
	if surface.Height == 0 {
		surface.Height = s.opts.DefaultSurface.Height
	}
	board, err := sandbox.NewBoard(surface)
	if err != nil {
		return nil, errors.NewValidationError("surface", err.Error())
	}

	id := uuid.NewString()
	sess := &boardSession{
		board: board,
		conv: agent.NewConversation(agent.Options{
			MinDelay: s.opts.AgentMin,
			MaxDelay: s.opts.AgentMax,
			Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
			Sleep:    s.opts.AgentSleep,
		}),
	}

	now := s.opts.Now()
	sess.touch(now)

	s.mu.Lock()
	expired := 0
	for old, b := range s.boards {
		if b.idleFor(now) > s.opts.IdleTTL {
			delete(s.boards, old)
			expired++
		}
	}
	s.boards[id] = sess
	n := len(s.boards)
	s.mu.Unlock()
	s.metrics.SetBoardsActive(n)

	log := logger.FromContext(ctx).WithPrefix("boards")
	if expired > 0 {
		log.Info("dropped %d idle boards", expired)
	}
	log.Info("board created: id=%s, surface=%gx%g", id, surface.Width, surface.Height)
	return snapshotOf(id, board), nil
}

func snapshotOf(id string, b *sandbox.Board) *BoardSnapshot {
	return &BoardSnapshot{ID: id, Surface: b.Surface(), Items: b.Items(), Gesture: b.Active()}
}

func (s *boardService) session(id string) (*boardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.boards[id]
	if !ok {
		return nil, errors.NewNotFoundError("board", id)
	}
	sess.touch(s.opts.Now())
	return sess, nil
}

// with runs fn holding the board lock.
func (s *boardService) with(id string, fn func(b *sandbox.Board) error) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.board)
}

func (s *boardService) Get(ctx context.Context, id string) (*BoardSnapshot, error) {
	var out *BoardSnapshot
	err := s.with(id, func(b *sandbox.Board) error {
		out = snapshotOf(id, b)
		return nil
	})
	return out, err
}

func (s *boardService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.boards[id]
	delete(s.boards, id)
	n := len(s.boards)
	s.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("board", id)
	}
	s.metrics.SetBoardsActive(n)
	return nil
}

func (s *boardService) Drop(ctx context.Context, id string, in DropInput) (*models.PlacedItem, error) {
	lib, ok := s.opts.Library.Lookup(in.LibraryID)
	if !ok {
		return nil, errors.NewValidationError("library_id", "unknown library item "+in.LibraryID)
	}
	var placed models.PlacedItem
	err := s.with(id, func(b *sandbox.Board) error {
		placed = b.Drop(lib, sandbox.Point{X: in.X, Y: in.Y})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.BoardAction("drop")
	logger.FromContext(ctx).WithPrefix("boards").Debug("dropped %s on %s at (%g,%g)", placed.ID, id, placed.X, placed.Y)
	return &placed, nil
}

func (s *boardService) Grab(ctx context.Context, id, itemID string, p sandbox.Point) error {
	return s.with(id, func(b *sandbox.Board) error {
		return boardError(b.BeginMove(itemID, p), itemID)
	})
}

func (s *boardService) BeginResize(ctx context.Context, id, itemID string, p sandbox.Point) error {
	return s.with(id, func(b *sandbox.Board) error {
		return boardError(b.BeginResize(itemID, p), itemID)
	})
}

func (s *boardService) Pointer(ctx context.Context, id string, p sandbox.Point) (*models.PlacedItem, error) {
	var item models.PlacedItem
	err := s.with(id, func(b *sandbox.Board) error {
		var err error
		item, err = b.Pointer(p)
		return boardError(err, "")
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *boardService) Release(ctx context.Context, id string) error {
	var kind sandbox.GestureKind
	err := s.with(id, func(b *sandbox.Board) error {
		kind = b.Active()
		b.End()
		return nil
	})
	if err == nil && kind != sandbox.GestureNone {
		s.metrics.BoardAction(string(kind))
	}
	return err
}

func (s *boardService) DeleteItem(ctx context.Context, id, itemID string) (bool, error) {
	var removed bool
	err := s.with(id, func(b *sandbox.Board) error {
		removed = b.Delete(itemID)
		return nil
	})
	if removed {
		s.metrics.BoardAction("delete")
	}
	return removed, err
}

func (s *boardService) Clear(ctx context.Context, id string) (int, error) {
	var n int
	err := s.with(id, func(b *sandbox.Board) error {
		n = b.Clear()
		return nil
	})
	if err == nil {
		s.metrics.BoardAction("clear")
	}
	return n, err
}

func (s *boardService) Export(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.with(id, func(b *sandbox.Board) error {
		var err error
		data, err = b.Export()
		if err != nil {
			return errors.NewInternalError(err)
		}
		return nil
	})
	return data, err
}

func (s *boardService) Snapshot(ctx context.Context, id string) ([]byte, error) {
	var items []models.PlacedItem
	var surface sandbox.Surface
	err := s.with(id, func(b *sandbox.Board) error {
		items, surface = b.Items(), b.Surface()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, items, surface)
}

func (s *boardService) render(ctx context.Context, items []models.PlacedItem, surface sandbox.Surface) ([]byte, error) {
	img, err := compositor.Render(items, surface, s.opts.SnapshotSize, s.opts.Assets)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("boards").Error("failed to composite board: %v", err)
		return nil, errors.NewInternalError(err)
	}
	data, err := compositor.EncodePNG(img)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return data, nil
}

// Analyze composites the board and submits the image. An empty board is
// rejected before anything is rendered.
func (s *boardService) Analyze(ctx context.Context, id string, in AnalyzeBoardInput) (*models.SandboxAnalysis, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	items, surface := sess.board.Items(), sess.board.Surface()
	sess.mu.Unlock()

	if len(items) == 0 {
		return nil, errors.NewValidationError("items", "place at least one item in the sandbox before analyzing")
	}

	data, err := s.render(ctx, items, surface)
	if err != nil {
		return nil, err
	}
	result, err := s.sandboxSvc.Analyze(ctx, AnalyzeInput{
		Image:    data,
		Filename: "sandbox.png",
		UserID:   in.UserID,
		Prompt:   in.Prompt,
		Items:    items,
	})
	if err != nil {
		return nil, err
	}
	sess.conv.AddAnalysis(result.Caption, result.Analysis)
	s.metrics.BoardAction("analyze")
	return result, nil
}

func (s *boardService) Chat(ctx context.Context, id, text string) (*agent.Message, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	items := sess.board.Items()
	sess.mu.Unlock()

	reply, err := sess.conv.Send(ctx, text, items)
	switch {
	case err == nil:
		return &reply, nil
	case stderrors.Is(err, agent.ErrEmptyMessage):
		return nil, errors.NewValidationError("text", err.Error())
	case stderrors.Is(err, agent.ErrBusy):
		return nil, errors.NewConflictError(err)
	default:
		return nil, err
	}
}

func (s *boardService) Messages(ctx context.Context, id string) ([]agent.Message, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.conv.Messages(), nil
}

func boardError(err error, itemID string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sandbox.ErrItemNotFound):
		return errors.NewNotFoundError("item", itemID)
	case stderrors.Is(err, sandbox.ErrGestureActive), stderrors.Is(err, sandbox.ErrNoGesture):
		return errors.NewConflictError(err)
	default:
		return errors.NewInternalError(err)
	}
}
