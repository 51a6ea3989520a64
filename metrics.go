package foundry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PollMetrics counts status queries and wait outcomes. A nil *PollMetrics
// records nothing.
type PollMetrics struct {
	Queries  *prometheus.CounterVec
	Errors   prometheus.Counter
	Outcomes *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewPollMetrics registers the collectors on reg. A nil reg leaves them
// unregistered.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	factory := promauto.With(reg)
	return &PollMetrics{
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foundry",
			Subsystem: "run_poller",
			Name:      "queries_total",
			Help:      "Count of run status queries by observed status",
		}, []string{"status"}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry",
			Subsystem: "run_poller",
			Name:      "query_errors_total",
			Help:      "Count of run status queries that failed",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foundry",
			Subsystem: "run_poller",
			Name:      "waits_total",
			Help:      "Count of finished waits by outcome",
		}, []string{"outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "foundry",
			Subsystem: "run_poller",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for runs",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),
	}
}

func (m *PollMetrics) observeQuery(status RunStatus) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(statusLabel(status)).Inc()
}

// statusLabel keeps the label set closed; unknown statuses count as other.
func statusLabel(status RunStatus) string {
	switch status {
	case RunQueued, RunInProgress, RunRequiresAction, RunCancelling,
		RunCancelled, RunFailed, RunCompleted, RunIncomplete, RunExpired:
		return string(status)
	default:
		return "other"
	}
}

func (m *PollMetrics) observeError() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}

func (m *PollMetrics) observeResult(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome.String()).Inc()
	m.Duration.WithLabelValues(outcome.String()).Observe(elapsed.Seconds())
}
