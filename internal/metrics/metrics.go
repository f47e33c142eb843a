// Package metrics exposes Gogios runtime counters as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks core scheduler/check/notification counters. All metrics
// use the gogios_ prefix. A nil *Metrics is a valid no-op collector so
// callers don't need to guard every call site with an enabled check.
type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec
	CommandsTotal      *prometheus.CounterVec
	ActiveDowntimes    prometheus.Gauge
	QueuedEvents       prometheus.Gauge
}

// New creates Gogios metrics registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gogios_checks_total",
				Help: "Total checks executed by object type and state.",
			},
			[]string{"object_type", "state"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gogios_check_duration_seconds",
				Help:    "Check execution duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"object_type"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gogios_notifications_total",
				Help: "Total notifications sent by object type.",
			},
			[]string{"object_type"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gogios_external_commands_total",
				Help: "Total external commands processed by name and outcome.",
			},
			[]string{"command", "outcome"},
		),
		ActiveDowntimes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gogios_active_downtimes",
				Help: "Current number of scheduled downtimes.",
			},
		),
		QueuedEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gogios_queued_events",
				Help: "Current number of events pending in the scheduler queue.",
			},
		),
	}

	reg.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.NotificationsTotal,
		m.CommandsTotal,
		m.ActiveDowntimes,
		m.QueuedEvents,
	)

	return m
}

func (m *Metrics) RecordCheck(objectType, state string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(objectType, state).Inc()
	m.CheckDuration.WithLabelValues(objectType).Observe(durationSeconds)
}

func (m *Metrics) RecordNotification(objectType string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(objectType).Inc()
}

func (m *Metrics) RecordCommand(name, outcome string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) SetActiveDowntimes(n int) {
	if m == nil {
		return
	}
	m.ActiveDowntimes.Set(float64(n))
}

func (m *Metrics) SetQueuedEvents(n int) {
	if m == nil {
		return
	}
	m.QueuedEvents.Set(float64(n))
}

// Server wraps the /metrics HTTP listener so main can start/stop it
// alongside the Livestatus and NRDP listeners.
type Server struct {
	httpServer *http.Server
}

// NewServer builds an HTTP server exposing reg (typically
// prometheus.DefaultRegisterer's gatherer) at /metrics on addr.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start begins serving in the background. Errors after Stop has been
// called are swallowed since http.ErrServerClosed is expected.
func (s *Server) Start(onError func(error)) {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Stop shuts the listener down.
func (s *Server) Stop() {
	s.httpServer.Close()
}
