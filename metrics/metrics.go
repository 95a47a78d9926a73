// Package metrics records convergence run outcomes in a private Prometheus
// registry and writes them as a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lioctl"

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type RunMetrics struct {
	registry *prometheus.Registry

	Resources      *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	RunDuration    prometheus.Gauge
	LastRun        prometheus.Gauge
	LastRunSuccess prometheus.Gauge
}

func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		Resources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_total",
				Help:      "Resources evaluated by the last run, by kind, action and outcome.",
			},
			[]string{"kind", "action", "outcome"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "targetcli commands issued by the last run, by outcome.",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 when every resource of the last run converged, 0 otherwise.",
		}),
	}
	m.registry.MustRegister(m.Resources, m.Commands, m.RunDuration, m.LastRun, m.LastRunSuccess)
	return m
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) ObserveResource(kind string, action string, outcome string) {
	m.Resources.WithLabelValues(kind, action, outcome).Inc()
}

func (m *RunMetrics) ObserveCommand(failed bool) {
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailed
	}
	m.Commands.WithLabelValues(outcome).Inc()
}

func (m *RunMetrics) ObserveRun(finished time.Time, duration time.Duration, success bool) {
	m.RunDuration.Set(duration.Seconds())
	m.LastRun.Set(float64(finished.Unix()))
	if success {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
}

// WriteTextfile atomically replaces path with the current metric values.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
