package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akashabrah/StreetSense/internal/model"
)

// Metrics holds the demo's Prometheus collectors on a private registry.
type Metrics struct {
	Ticks           prometheus.Counter
	Detections      *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	CameraErrors    *prometheus.CounterVec
	StoreWrites     prometheus.Counter
	StoreFailures   prometheus.Counter
	StoreDropped    prometheus.Counter
	SessionActive   prometheus.Gauge
	Viewers         prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetsense_ticks_total",
			Help: "Detection steps executed",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streetsense_detections_total",
			Help: "Simulated pedestrians by risk level",
		}, []string{"risk_level"}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetsense_sessions_started_total",
			Help: "Sessions that acquired the camera",
		}),
		CameraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streetsense_camera_errors_total",
			Help: "Camera acquisition failures by reason",
		}, []string{"reason"}),
		StoreWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetsense_store_writes_total",
			Help: "Records written to the remote store",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetsense_store_write_failures_total",
			Help: "Remote store inserts that failed",
		}),
		StoreDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streetsense_store_dropped_total",
			Help: "Records dropped because the store queue was full",
		}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streetsense_session_active",
			Help: "1 while a detection session is running",
		}),
		Viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streetsense_viewers",
			Help: "Connected live feed viewers",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Ticks,
		m.Detections,
		m.SessionsStarted,
		m.CameraErrors,
		m.StoreWrites,
		m.StoreFailures,
		m.StoreDropped,
		m.SessionActive,
		m.Viewers,
	)

	// pre-create tier series so they show up at zero
	for _, level := range model.RiskLevels {
		m.Detections.WithLabelValues(string(level))
	}

	return m
}

// ObserveTotals records one tick's counts.
func (m *Metrics) ObserveTotals(t model.SessionTotals) {
	m.Ticks.Inc()
	for _, level := range model.RiskLevels {
		m.Detections.WithLabelValues(string(level)).Add(float64(t.Count(level)))
	}
}

// SetSessionActive flips the session gauge.
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionActive.Set(1)
		return
	}
	m.SessionActive.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
