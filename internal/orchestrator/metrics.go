package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records stage outcomes on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the stage metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		stageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ocp4mco",
				Subsystem: "stage",
				Name:      "runs_total",
				Help:      "Stage executions by cluster and result",
			},
			[]string{"stage", "cluster", "result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ocp4mco",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Duration of a stage on one cluster in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 13), // 1s to ~68min
			},
			[]string{"stage"},
		),
	}
	m.Registry.MustRegister(m.stageRuns, m.stageDuration)
	return m
}

func (m *Metrics) observe(r StageResult) {
	if m == nil {
		return
	}
	m.stageRuns.WithLabelValues(r.Stage, r.Cluster, string(r.Status)).Inc()
	if r.Status == StatusSucceeded || r.Status == StatusFailed {
		m.stageDuration.WithLabelValues(r.Stage).Observe(r.Duration.Seconds())
	}
}

// WriteTextfile writes the current metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
