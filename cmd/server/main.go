package main

import (
	"context"
	"image"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/sandplay/internal/api"
	"github.com/vytor/sandplay/internal/client"
	"github.com/vytor/sandplay/internal/compositor"
	"github.com/vytor/sandplay/internal/config"
	"github.com/vytor/sandplay/internal/db"
	"github.com/vytor/sandplay/internal/jobs"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/metrics"
	"github.com/vytor/sandplay/internal/repository/sqlite"
	"github.com/vytor/sandplay/internal/sandbox"
	"github.com/vytor/sandplay/internal/services"
	"github.com/vytor/sandplay/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Sandplay Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("label_set=%s", cfg.LabelSet)
	log.Debug("questions_per_round=%d", cfg.QuestionsPerRound)
	log.Debug("question_failure_rate=%v", cfg.QuestionFailureRate)
	log.Debug("answer_display_delay=%s", cfg.AnswerDisplayDelay)
	log.Debug("answer_timeout=%s", cfg.AnswerTimeout)
	log.Debug("agent_delay=%s..%s", cfg.AgentMinDelay, cfg.AgentMaxDelay)
	log.Debug("assets_dir=%s", cfg.AssetsDir)
	log.Debug("snapshot_size=%dx%d", cfg.SnapshotWidth, cfg.SnapshotHeight)
	log.Debug("max_upload_bytes=%d", cfg.MaxUploadBytes)
	log.Debug("worker_count=%d", cfg.WorkerCount)
	log.Debug("queue_size=%d", cfg.QueueSize)
	log.Debug("session_idle_ttl=%s", cfg.SessionIdleTTL)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	roundRepo := sqlite.NewRoundRepository(database.DB)
	analysisRepo := sqlite.NewAnalysisRepository(database.DB)
	m := metrics.NewManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueSize, m)
	pool.Start(ctx)

	// Initialize services
	scoreService := services.NewScoreService(roundRepo, cfg.Labels(), m)
	jobQueue := jobs.NewWorkerQueue(pool, scoreService, analysisRepo)

	sandboxOpts := services.SandboxOptions{MaxImageBytes: cfg.MaxUploadBytes}
	if cfg.AnalysisUpstreamURL != "" {
		log.Info("forwarding sandbox analyses to %s", cfg.AnalysisUpstreamURL)
		sandboxOpts.Upstream = client.New(cfg.AnalysisUpstreamURL, client.WithTimeout(60*time.Second))
	}
	sandboxService := services.NewSandboxService(analysisRepo, jobQueue, m, sandboxOpts)

	gameService := services.NewGameService(jobQueue, m, services.GameOptions{
		Labels:            cfg.Labels(),
		QuestionsPerRound: cfg.QuestionsPerRound,
		FailureRate:       cfg.QuestionFailureRate,
		DisplayDelay:      cfg.AnswerDisplayDelay,
		AnswerTimeout:     cfg.AnswerTimeout,
		IdleTTL:           cfg.SessionIdleTTL,
		NewRand:           func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	})

	assets := compositor.NewAssetStore(cfg.AssetsDir)
	boardService := services.NewBoardService(sandboxService, m, services.BoardOptions{
		Library:      sandbox.DefaultLibrary().WithImages(assets.Has),
		Assets:       assets,
		SnapshotSize: image.Pt(cfg.SnapshotWidth, cfg.SnapshotHeight),
		AgentMin:     cfg.AgentMinDelay,
		AgentMax:     cfg.AgentMaxDelay,
		IdleTTL:      cfg.SessionIdleTTL,
	})

	srv := api.NewServer(api.Server{
		DB:             database,
		ScoreService:   scoreService,
		SandboxService: sandboxService,
		GameService:    gameService,
		BoardService:   boardService,
		Metrics:        m,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Sessions flush pending rounds through the pool, so close them first.
	log.Debug("closing game sessions")
	gameService.Close()

	log.Debug("stopping worker pool")
	pool.Stop()

	log.Info("===========================================")
	log.Info("Sandplay Server Stopped")
	log.Info("===========================================")
}
