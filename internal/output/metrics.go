package output

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"exec-launcher/internal/event"
)

// Metrics holds launch counters on a private registry so that a one-shot
// run can push them without the Go runtime collectors.
type Metrics struct {
	registry *prometheus.Registry
	launches *prometheus.CounterVec
	failures prometheus.Counter
	exitCode prometheus.Gauge
	runtime  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exec_launcher_launches_total",
			Help: "Launch events by outcome",
		}, []string{"outcome"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exec_launcher_failures_total",
			Help: "Launches that failed to spawn, exec or exit cleanly",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exec_launcher_child_exit_code",
			Help: "Exit status of the last reaped child",
		}),
		runtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exec_launcher_child_runtime_seconds",
			Help: "Wall time between starting and reaping the last child",
		}),
	}
	m.registry.MustRegister(m.launches, m.failures, m.exitCode, m.runtime)
	return m
}

func (m *Metrics) Observe(ev event.LaunchEvent) {
	m.launches.WithLabelValues(string(ev.Outcome)).Inc()
	if ev.Failed() {
		m.failures.Inc()
	}
	if ev.Outcome == event.OutcomeExited {
		m.exitCode.Set(float64(ev.ExitCode))
		m.runtime.Set(ev.Runtime.Seconds())
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the registry to a Pushgateway, replacing the job's group.
func (m *Metrics) Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
