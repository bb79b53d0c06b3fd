package metrics

import (
	"time"

	"browsertools/internal/application/port/output"

	"github.com/prometheus/client_golang/prometheus"
)

var _ output.MetricsPort = (*Collector)(nil)

type Collector struct {
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	sessionsOpen prometheus.Gauge
}

// NewCollector registers the browsertools metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "browsertools",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "browsertools",
			Name:      "tool_call_duration_seconds",
			Help:      "Wall time of tool invocations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tool"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "browsertools",
			Name:      "browser_sessions_open",
			Help:      "Browser sessions currently holding an engine process.",
		}),
	}
	reg.MustRegister(c.toolCalls, c.toolDuration, c.sessionsOpen)
	return c
}

func (c *Collector) ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	c.toolCalls.WithLabelValues(tool, outcome).Inc()
	c.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func (c *Collector) SetSessionOpen(open bool) {
	if open {
		c.sessionsOpen.Inc()
		return
	}
	c.sessionsOpen.Dec()
}
