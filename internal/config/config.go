package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/logger"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	LabelSet            string
	QuestionsPerRound   int
	QuestionFailureRate float64
	AnswerDisplayDelay  time.Duration
	AnswerTimeout       time.Duration

	AgentMinDelay time.Duration
	AgentMaxDelay time.Duration

	AssetsDir           string
	SnapshotWidth       int
	SnapshotHeight      int
	MaxUploadBytes      int64
	AnalysisUpstreamURL string

	WorkerCount int
	QueueSize   int

	SessionIdleTTL time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file:sandplay.db"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		LabelSet:            envOr("LABEL_SET", "basic"),
		QuestionsPerRound:   envIntOr("QUESTIONS_PER_ROUND", 5),
		QuestionFailureRate: envFloatOr("QUESTION_FAILURE_RATE", 0.1),
		AnswerDisplayDelay:  envDurationOr("ANSWER_DISPLAY_DELAY", 1500*time.Millisecond),
		AnswerTimeout:       envDurationOr("ANSWER_TIMEOUT", 0),
		AgentMinDelay:       envDurationOr("AGENT_MIN_DELAY", time.Second),
		AgentMaxDelay:       envDurationOr("AGENT_MAX_DELAY", 3*time.Second),
		AssetsDir:           envOr("ASSETS_DIR", "assets"),
		SnapshotWidth:       envIntOr("SNAPSHOT_WIDTH", 800),
		SnapshotHeight:      envIntOr("SNAPSHOT_HEIGHT", 600),
		MaxUploadBytes:      int64(envIntOr("MAX_UPLOAD_BYTES", 10<<20)),
		AnalysisUpstreamURL: os.Getenv("ANALYSIS_UPSTREAM_URL"),
		WorkerCount:         envIntOr("WORKER_COUNT", 2),
		QueueSize:           envIntOr("QUEUE_SIZE", 64),
		SessionIdleTTL:      envDurationOr("SESSION_IDLE_TTL", 2*time.Hour),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if _, err := emotion.ParseSet(c.LabelSet); err != nil {
		return fmt.Errorf("LABEL_SET: %w", err)
	}
	if c.QuestionsPerRound < 1 || c.QuestionsPerRound > 50 {
		return fmt.Errorf("QUESTIONS_PER_ROUND must be between 1 and 50, got %d", c.QuestionsPerRound)
	}
	if c.QuestionFailureRate < 0 || c.QuestionFailureRate >= 1 {
		return fmt.Errorf("QUESTION_FAILURE_RATE must be in [0, 1), got %v", c.QuestionFailureRate)
	}
	if c.AnswerDisplayDelay < 0 || c.AnswerTimeout < 0 {
		return fmt.Errorf("ANSWER_DISPLAY_DELAY and ANSWER_TIMEOUT cannot be negative")
	}
	if c.AgentMinDelay < 0 || c.AgentMaxDelay < c.AgentMinDelay {
		return fmt.Errorf("AGENT_MAX_DELAY (%s) must be >= AGENT_MIN_DELAY (%s) >= 0", c.AgentMaxDelay, c.AgentMinDelay)
	}
	if c.SnapshotWidth < 1 || c.SnapshotHeight < 1 {
		return fmt.Errorf("SNAPSHOT_WIDTH and SNAPSHOT_HEIGHT must be positive")
	}
	if c.MaxUploadBytes < 1 || c.MaxUploadBytes > 10<<20 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be between 1 and %d, got %d", 10<<20, c.MaxUploadBytes)
	}
	if c.AnalysisUpstreamURL != "" {
		u, err := url.Parse(c.AnalysisUpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ANALYSIS_UPSTREAM_URL must be an absolute URL, got %q", c.AnalysisUpstreamURL)
		}
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1, got %d", c.QueueSize)
	}
	if c.SessionIdleTTL < time.Minute {
		return fmt.Errorf("SESSION_IDLE_TTL must be at least 1m, got %s", c.SessionIdleTTL)
	}
	return nil
}

// Labels returns the configured label set.
func (c Config) Labels() emotion.Set {
	set, err := emotion.ParseSet(c.LabelSet)
	if err != nil {
		return emotion.Basic
	}
	return set
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
