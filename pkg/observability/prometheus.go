package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the engine lifecycle as Prometheus collectors.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	blocksVisited     *prometheus.CounterVec
	integrationCalls  *prometheus.CounterVec
	walkDuration      prometheus.Histogram
	walkBlocks        prometheus.Histogram
}

// NewMetrics registers the engine collectors on reg and returns them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "sessions_started_total",
			Help:      "Chat sessions started.",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "sessions_completed_total",
			Help:      "Chat sessions that reached flow completion.",
		}),
		blocksVisited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "blocks_visited_total",
			Help:      "Blocks processed by the walker, by family.",
		}, []string{"family"}),
		integrationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatflow",
			Name:      "integration_calls_total",
			Help:      "Integration block invocations, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		walkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatflow",
			Name:      "walk_duration_seconds",
			Help:      "Duration of one walk invocation.",
			Buckets:   prometheus.DefBuckets,
		}),
		walkBlocks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatflow",
			Name:      "walk_blocks",
			Help:      "Blocks visited per walk invocation.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
	reg.MustRegister(
		m.sessionsStarted,
		m.sessionsCompleted,
		m.blocksVisited,
		m.integrationCalls,
		m.walkDuration,
		m.walkBlocks,
	)
	return m
}

// Hooks returns a LifecycleHooks wired into the collectors.
func (m *Metrics) Hooks() LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart: func(_ context.Context, _ *SessionEvent) {
			m.sessionsStarted.Inc()
		},
		OnSessionEnd: func(_ context.Context, _ *SessionEvent) {
			m.sessionsCompleted.Inc()
		},
		OnBlockVisit: func(_ context.Context, e *BlockEvent) {
			m.blocksVisited.WithLabelValues(e.Family).Inc()
		},
		OnIntegration: func(_ context.Context, e *IntegrationEvent) {
			outcome := "success"
			if e.IsError {
				outcome = "error"
			}
			m.integrationCalls.WithLabelValues(e.Provider, outcome).Inc()
		},
		OnWalkDone: func(_ context.Context, e *WalkEvent) {
			m.walkDuration.Observe(e.Duration.Seconds())
			m.walkBlocks.Observe(float64(e.BlocksVisited))
		},
	}
}
