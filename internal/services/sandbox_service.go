package services

import (
	"context"
	stderrors "errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/vytor/sandplay/internal/caption"
	"github.com/vytor/sandplay/internal/client"
	"github.com/vytor/sandplay/internal/errors"
	"github.com/vytor/sandplay/internal/jobs"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
)

// AnalyzeInput is one sandbox image submitted for analysis.
type AnalyzeInput struct {
	Image    []byte
	Filename string
	UserID   string
	Prompt   string
	Items    []models.PlacedItem
}

// SandboxService analyzes sandbox images and keeps their history
type SandboxService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*models.SandboxAnalysis, error)
	History(ctx context.Context, filter models.AnalysisFilter) ([]models.SandboxAnalysis, error)
}

// Analyzer is an external analysis backend.
type Analyzer interface {
	AnalyzeSandbox(ctx context.Context, req client.AnalyzeRequest) (*models.SandboxAnalysis, error)
}

type SandboxOptions struct {
	MaxImageBytes int64
	// Upstream, when set, replaces the local caption generator.
	Upstream Analyzer
	Rand     *rand.Rand
	Now      func() time.Time
}

type sandboxService struct {
	analysisRepo repository.AnalysisRepository
	jobQueue     jobs.JobQueue
	metrics      *metrics.Manager
	opts         SandboxOptions

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// NewSandboxService creates a new SandboxService
func NewSandboxService(analysisRepo repository.AnalysisRepository, jobQueue jobs.JobQueue, m *metrics.Manager, opts SandboxOptions) SandboxService {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = caption.MaxImageBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &sandboxService{
		analysisRepo: analysisRepo,
		jobQueue:     jobQueue,
		metrics:      m,
		opts:         opts,
		rnd:          rnd,
	}
}

func (s *sandboxService) Analyze(ctx context.Context, in AnalyzeInput) (*models.SandboxAnalysis, error) {
	log := logger.FromContext(ctx).WithPrefix("sandbox").WithField("user_id", in.UserID)
	log.Debug("analyzing sandbox image: %d bytes, %d items", len(in.Image), len(in.Items))

	cfg, format, err := caption.Validate(in.Image, s.opts.MaxImageBytes)
	if err != nil {
		log.Warn("rejected sandbox image: %v", err)
		return nil, imageError(err)
	}

	var result *models.SandboxAnalysis
	source := "local"
	if s.opts.Upstream != nil {
		source = "upstream"
		result, err = s.opts.Upstream.AnalyzeSandbox(ctx, client.AnalyzeRequest{
			Image:    in.Image,
			Filename: in.Filename,
			UserID:   in.UserID,
			Prompt:   in.Prompt,
			Items:    in.Items,
		})
		s.metrics.Analysis(source, err)
		if err != nil {
			log.Error("upstream analysis failed: %v", err)
			return nil, errors.NewUnavailableError("analysis service unavailable", err)
		}
		if result.Timestamp.IsZero() {
			result.Timestamp = s.opts.Now()
		}
		result.UserID = in.UserID
	} else {
		desc := caption.Describe(cfg)
		s.mu.Lock()
		report := caption.Analyze(desc, in.Prompt, s.rnd)
		s.mu.Unlock()
		result = &models.SandboxAnalysis{
			UserID:    in.UserID,
			Caption:   desc,
			Analysis:  report,
			Timestamp: s.opts.Now(),
		}
		s.metrics.Analysis(source, nil)
	}
	result.Items = in.Items

	if err := s.jobQueue.EnqueueAnalysisRecord(ctx, *result); err != nil {
		log.Warn("failed to queue analysis record: %v", err)
	}
	log.Info("sandbox analyzed (%s, %s %dx%d)", source, format, cfg.Width, cfg.Height)
	return result, nil
}

func imageError(err error) error {
	switch {
	case stderrors.Is(err, caption.ErrImageTooLarge):
		return errors.NewTooLargeError(err.Error())
	case stderrors.Is(err, caption.ErrEmptyImage):
		return errors.NewValidationError("file", err.Error())
	default:
		return errors.NewValidationError("file", caption.ErrUnsupportedFormat.Error())
	}
}

func (s *sandboxService) History(ctx context.Context, filter models.AnalysisFilter) ([]models.SandboxAnalysis, error) {
	filter.UserID = strings.TrimSpace(filter.UserID)
	out, err := s.analysisRepo.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list analyses: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return out, nil
}
