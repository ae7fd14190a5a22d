package ops

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the flow engine's Prometheus instruments.
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	TurnErrors      *prometheus.CounterVec
	ThreadsStarted  *prometheus.CounterVec
	ThreadsFinished *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
}

// NewMetrics creates and registers the instruments on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "turns_total",
			Help:      "Inbound events dispatched into a conversation, by thread and kind.",
		}, []string{"thread", "kind"}),
		TurnErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "turn_errors_total",
			Help:      "Turns that ended in an error, by thread.",
		}, []string{"thread"}),
		ThreadsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "threads_started_total",
			Help:      "Conversations opened, by thread.",
		}, []string{"thread"}),
		ThreadsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Name:      "threads_finished_total",
			Help:      "Conversations that reached a terminal step, by thread.",
		}, []string{"thread"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hearth",
			Name:      "turn_duration_seconds",
			Help:      "Wall time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.TurnsTotal, m.TurnErrors, m.ThreadsStarted, m.ThreadsFinished, m.TurnDuration)
	return m
}
