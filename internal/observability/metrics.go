package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adamking/ai-changelog/internal/clierr"
)

// Metrics bundles Prometheus collectors for a single ai-changelog run.
type Metrics struct {
	registry        *prometheus.Registry
	Attempts        *prometheus.CounterVec
	AttemptDuration prometheus.Histogram
	Tokens          *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Gauge
}

// NewMetrics constructs a private registry with the run collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_changelog_api_attempts_total",
		Help: "Completion request attempts by HTTP status (or transport_error)",
	}, []string{"outcome"})

	attemptDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ai_changelog_api_attempt_duration_seconds",
		Help:    "Duration of a single completion request attempt",
		Buckets: prometheus.DefBuckets,
	})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_changelog_tokens_total",
		Help: "Tokens reported by the API usage block",
	}, []string{"kind"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_changelog_runs_total",
		Help: "Runs by result (ok or error kind)",
	}, []string{"result"})

	runDur := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ai_changelog_last_run_duration_seconds",
		Help: "Wall time of the last run",
	})

	reg.MustRegister(attempts, attemptDur, tokens, runs, runDur)

	return &Metrics{
		registry:        reg,
		Attempts:        attempts,
		AttemptDuration: attemptDur,
		Tokens:          tokens,
		Runs:            runs,
		RunDuration:     runDur,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt counts one network try. A zero status means no response
// was received.
func (m *Metrics) RecordAttempt(status int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "transport_error"
	if status != 0 {
		outcome = strconv.Itoa(status)
	}
	m.Attempts.WithLabelValues(outcome).Inc()
	m.AttemptDuration.Observe(duration.Seconds())
}

// RecordTokens adds the usage counts of a completion.
func (m *Metrics) RecordTokens(prompt, completion int) {
	if m == nil {
		return
	}
	m.Tokens.WithLabelValues("prompt").Add(float64(prompt))
	m.Tokens.WithLabelValues("completion").Add(float64(completion))
}

// RecordRun records the final result of a run.
func (m *Metrics) RecordRun(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = clierr.KindOf(err).String()
	}
	m.Runs.WithLabelValues(result).Inc()
	m.RunDuration.Set(duration.Seconds())
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
