package logger_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/sandplay/internal/logger"
)

func newBufferLogger(level logger.Level) (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(level),
		logger.WithColors(false),
		logger.WithCaller(false),
	)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("Warning"))
	assert.Equal(t, logger.ERROR, logger.ParseLevel("ERROR"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(logger.WARN)
	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  shown 1")
}

func TestFieldsAreSortedAndQuoted(t *testing.T) {
	l, buf := newBufferLogger(logger.DEBUG)
	l.WithFields(map[string]any{"zeta": 1, "alpha": "two words"}).WithPrefix("quiz").Info("hello")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[quiz] hello")
	assert.True(t, strings.HasSuffix(line, `alpha="two words" zeta=1`), line)
}

func TestWithErrorAndDerivedLoggersShareOutput(t *testing.T) {
	l, buf := newBufferLogger(logger.DEBUG)
	child := l.WithError(errors.New("boom"))
	child.Error("failed")
	l.WithError(nil).Info("fine")

	out := buf.String()
	assert.Contains(t, out, "failed error=boom")
	assert.Contains(t, out, "fine\n")
}

func TestContextRoundTrip(t *testing.T) {
	l, _ := newBufferLogger(logger.DEBUG)
	ctx := logger.NewContext(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
