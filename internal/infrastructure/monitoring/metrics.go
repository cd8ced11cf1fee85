package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the shell service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration prometheus.Histogram

	// Output metrics
	OutputLines      *prometheus.CounterVec
	HistoryEvictions prometheus.Counter

	// Session metrics
	ShellCrashes  prometheus.Counter
	ShellRestarts prometheus.Counter

	// Live event metrics
	WSConnections prometheus.Gauge
	DroppedEvents prometheus.Counter

	startTime time.Time

	// Snapshot for the JSON endpoint
	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current counter values for the JSON metrics endpoint.
type Snapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	TotalCommands  int64 `json:"total_commands"`
	FailedCommands int64 `json:"failed_commands"`
	OutputLines    int64 `json:"output_lines"`
	Evictions      int64 `json:"history_evictions"`
	Crashes        int64 `json:"shell_crashes"`
	Restarts       int64 `json:"shell_restarts"`
	DroppedEvents  int64 `json:"dropped_events"`
	Connections    int64 `json:"ws_connections"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cygnus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cygnus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cygnus_commands_total",
				Help: "Total number of executed commands",
			},
			[]string{"status"},
		),
		CommandDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cygnus_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),

		OutputLines: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cygnus_output_lines_total",
				Help: "Total number of output lines streamed",
			},
			[]string{"stream"},
		),
		HistoryEvictions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cygnus_history_evictions_total",
				Help: "Total number of entries evicted from the history buffer",
			},
		),

		ShellCrashes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cygnus_shell_crashes_total",
				Help: "Total number of unexpected shell session exits",
			},
		),
		ShellRestarts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cygnus_shell_restarts_total",
				Help: "Total number of successful shell session restarts",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cygnus_ws_connections",
				Help: "Number of connected live event subscribers",
			},
		),
		DroppedEvents: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cygnus_ws_dropped_events_total",
				Help: "Total number of live events dropped for slow subscribers",
			},
		),
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.mu.Unlock()
}

// RecordCommand records one completed command execution.
func (m *Metrics) RecordCommand(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.CommandsTotal.WithLabelValues(status).Inc()
	m.CommandDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCommands++
	if !success {
		m.snapshot.FailedCommands++
	}
	m.mu.Unlock()
}

// RecordOutputLine records one streamed output line.
func (m *Metrics) RecordOutputLine(stream string) {
	m.OutputLines.WithLabelValues(stream).Inc()

	m.mu.Lock()
	m.snapshot.OutputLines++
	m.mu.Unlock()
}

// RecordHistoryEviction records one evicted history entry.
func (m *Metrics) RecordHistoryEviction() {
	m.HistoryEvictions.Inc()

	m.mu.Lock()
	m.snapshot.Evictions++
	m.mu.Unlock()
}

// RecordShellCrash records one unexpected sentinel exit.
func (m *Metrics) RecordShellCrash() {
	m.ShellCrashes.Inc()

	m.mu.Lock()
	m.snapshot.Crashes++
	m.mu.Unlock()
}

// RecordShellRestart records one successful sentinel restart.
func (m *Metrics) RecordShellRestart() {
	m.ShellRestarts.Inc()

	m.mu.Lock()
	m.snapshot.Restarts++
	m.mu.Unlock()
}

// RecordDroppedEvent records one live event dropped for a slow subscriber.
func (m *Metrics) RecordDroppedEvent() {
	m.DroppedEvents.Inc()

	m.mu.Lock()
	m.snapshot.DroppedEvents++
	m.mu.Unlock()
}

// ConnectionOpened tracks a new live event subscriber.
func (m *Metrics) ConnectionOpened() {
	m.WSConnections.Inc()

	m.mu.Lock()
	m.snapshot.Connections++
	m.mu.Unlock()
}

// ConnectionClosed tracks a departed live event subscriber.
func (m *Metrics) ConnectionClosed() {
	m.WSConnections.Dec()

	m.mu.Lock()
	m.snapshot.Connections--
	m.mu.Unlock()
}

// GetSnapshot returns current metric values for the JSON endpoint.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()
	snap.UptimeSeconds = int64(time.Since(m.startTime).Seconds())
	return snap
}
