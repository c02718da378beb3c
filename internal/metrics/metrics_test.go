package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sandplay/internal/metrics"
)

func TestManager_Records(t *testing.T) {
	m := metrics.NewManager()

	m.RoundSaved()
	m.RoundSaved()
	m.Answer("sad", "wrong")
	m.Analysis("local", nil)
	m.Analysis("upstream", errors.New("timeout"))
	m.SetBoardsActive(3)
	m.HTTPRequest("/api/boards", http.MethodPost, 201, 20*time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "sandplay_rounds_saved_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := testutil.GatherAndCount(m.Registry(), "sandplay_sandbox_analyses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), "sandplay_rounds_saved_total 2")
	assert.Contains(t, string(body), `sandplay_answers_total{emotion="sad",outcome="wrong"} 1`)
	assert.Contains(t, string(body), "sandplay_boards_active 3")
	assert.Contains(t, string(body), `status_code="201"`)
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *metrics.Manager
	assert.NotPanics(t, func() {
		m.RoundSaved()
		m.Answer("happy", "correct")
		m.Job("save-round", nil)
		m.HTTPRequest("/", "GET", 200, time.Millisecond)
	})
}
