// Package metrics exposes Prometheus metrics for tool calls and the browser
// session. Metrics records events from the browser controller and the
// dispatcher.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "puppeteer_mcp"

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	registry *prometheus.Registry

	// Tool metrics
	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	// Browser session metrics
	BrowserLaunchesTotal       *prometheus.CounterVec
	BrowserLaunchFailuresTotal prometheus.Counter
	BrowserSessionActive       prometheus.Gauge
	ConsoleMessagesTotal       *prometheus.CounterVec

	// Safety metrics
	SafetyRejectionsTotal   prometheus.Counter
	DangerousOverridesTotal prometheus.Counter

	// Artifact metrics
	ArtifactsStoredTotal *prometheus.CounterVec
	Artifacts            prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool calls in seconds, including browser launch",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		BrowserLaunchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "browser_launches_total",
				Help:      "Total number of browser launches",
			},
			[]string{"reason"},
		),
		BrowserLaunchFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "browser_launch_failures_total",
				Help:      "Total number of failed browser launches",
			},
		),
		BrowserSessionActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "browser_session_active",
				Help:      "1 while a browser session is live",
			},
		),
		ConsoleMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "console_messages_total",
				Help:      "Total number of captured console messages by type",
			},
			[]string{"type"},
		),

		SafetyRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "safety_rejections_total",
				Help:      "Total number of launch configurations rejected for dangerous arguments",
			},
		),
		DangerousOverridesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dangerous_overrides_total",
				Help:      "Total number of launch configurations allowed despite dangerous arguments",
			},
		),

		ArtifactsStoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts_stored_total",
				Help:      "Total number of screenshots stored",
			},
			[]string{"mode"},
		),
		Artifacts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "artifacts",
				Help:      "Number of screenshots currently held",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(
		m.ToolCallsTotal,
		m.ToolCallDuration,
		m.BrowserLaunchesTotal,
		m.BrowserLaunchFailuresTotal,
		m.BrowserSessionActive,
		m.ConsoleMessagesTotal,
		m.SafetyRejectionsTotal,
		m.DangerousOverridesTotal,
		m.ArtifactsStoredTotal,
		m.Artifacts,
	)
}

// ToolCall records one dispatched tool call
func (m *Metrics) ToolCall(tool, outcome string, d time.Duration) {
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ArtifactStored records a stored screenshot
func (m *Metrics) ArtifactStored(replaced bool) {
	if replaced {
		m.ArtifactsStoredTotal.WithLabelValues("replaced").Inc()
		return
	}
	m.ArtifactsStoredTotal.WithLabelValues("created").Inc()
	m.Artifacts.Inc()
}

// SessionLaunched records a successful browser launch
func (m *Metrics) SessionLaunched(sessionID string, relaunch bool) {
	reason := "initial"
	if relaunch {
		reason = "relaunch"
	}
	m.BrowserLaunchesTotal.WithLabelValues(reason).Inc()
	m.BrowserSessionActive.Set(1)
}

// SessionLaunchFailed records a failed browser launch. No session is left
// behind.
func (m *Metrics) SessionLaunchFailed(err error) {
	m.BrowserLaunchFailuresTotal.Inc()
	m.BrowserSessionActive.Set(0)
}

// SessionClosed records an explicit session close
func (m *Metrics) SessionClosed(sessionID string) {
	m.BrowserSessionActive.Set(0)
}

// SafetyRejected records a rejected launch configuration
func (m *Metrics) SafetyRejected(flags []string) {
	m.SafetyRejectionsTotal.Inc()
}

// DangerousOverride records a dangerous configuration that was allowed
func (m *Metrics) DangerousOverride(flags []string) {
	m.DangerousOverridesTotal.Inc()
}

// ConsoleMessage records a captured console message
func (m *Metrics) ConsoleMessage(msgType string) {
	m.ConsoleMessagesTotal.WithLabelValues(msgType).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
