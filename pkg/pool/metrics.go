package pool

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chenjianlong/filetask/pkg/task"
)

const (
	defaultNamespace = "filetask"
	subsystemPool    = "pool"
)

// Metrics exposes pool activity through its own prometheus registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	active   prometheus.Gauge
	tasks    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	if strings.TrimSpace(namespace) == "" {
		namespace = defaultNamespace
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "active_tasks",
			Help:      "Tasks currently running.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "tasks_total",
			Help:      "Tasks that reached a terminal status.",
		}, []string{"kind", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "retries_total",
			Help:      "Attempts beyond the first.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemPool,
			Name:      "task_duration_seconds",
			Help:      "Wall time from pickup to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.active, m.tasks, m.retries, m.duration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *Metrics) observe(t *task.Task, status task.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	kind := string(t.Kind)
	m.tasks.WithLabelValues(kind, status.String()).Inc()
	if n := t.Attempts(); n > 1 {
		m.retries.WithLabelValues(kind).Add(float64(n - 1))
	}
	if elapsed > 0 {
		m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}
