// Package metrics exposes Prometheus metrics for the sandplay service on a
// dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service metrics. A nil *Manager records nothing, so
// components can be built without metrics in tests.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	roundsSaved   prometheus.Counter
	answers       *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	boardActions  *prometheus.CounterVec
	gamesActive   prometheus.Gauge
	boardsActive  prometheus.Gauge
	jobs          *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the latency buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager registers every metric on a fresh registry unless WithRegistry
// is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "sandplay",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.roundsSaved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rounds_saved_total",
		Help:      "Quiz rounds persisted",
	})
	m.answers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "answers_total",
		Help:      "Stored answers by target emotion and outcome",
	}, []string{"emotion", "outcome"})
	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sandbox_analyses_total",
		Help:      "Sandbox analyses by source and status",
	}, []string{"source", "status"})
	m.boardActions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "board_actions_total",
		Help:      "Sandbox board mutations by action",
	}, []string{"action"})
	m.gamesActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "games_active",
		Help:      "Quiz sessions held in memory",
	})
	m.boardsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "boards_active",
		Help:      "Sandbox boards held in memory",
	})
	m.jobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "worker_jobs_total",
		Help:      "Background jobs by name and status",
	}, []string{"job", "status"})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})
	m.httpDurations = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
	return m
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RoundSaved counts a stored round.
func (m *Manager) RoundSaved() {
	if m == nil {
		return
	}
	m.roundsSaved.Inc()
}

// Answer counts one stored answer. outcome is correct, wrong or timeout.
func (m *Manager) Answer(target string, outcome string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(target, outcome).Inc()
}

func (m *Manager) Analysis(source string, err error) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(source, status(err)).Inc()
}

func (m *Manager) BoardAction(action string) {
	if m == nil {
		return
	}
	m.boardActions.WithLabelValues(action).Inc()
}

func (m *Manager) SetGamesActive(n int) {
	if m == nil {
		return
	}
	m.gamesActive.Set(float64(n))
}

func (m *Manager) SetBoardsActive(n int) {
	if m == nil {
		return
	}
	m.boardsActive.Set(float64(n))
}

func (m *Manager) Job(name string, err error) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(name, status(err)).Inc()
}

func (m *Manager) HTTPRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDurations.WithLabelValues(route, method).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
