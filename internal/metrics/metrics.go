package metrics

import (
	"net/http"

	"facealarm/internal/models"
	"facealarm/internal/services/alert"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the watcher's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	framesRead     prometheus.Counter
	frameFailures  prometheus.Counter
	facesDetected  prometheus.Counter
	alertsTripped  prometheus.Counter
	alertTriggered prometheus.Gauge
	actions        *prometheus.CounterVec
	actionSeconds  *prometheus.HistogramVec
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facealarm_frames_read_total",
			Help: "Frames read from the camera",
		}),
		frameFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facealarm_frame_failures_total",
			Help: "Failed camera reads",
		}),
		facesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facealarm_faces_detected_total",
			Help: "Faces found across all frames",
		}),
		alertsTripped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facealarm_alerts_total",
			Help: "Times the alert latch tripped",
		}),
		alertTriggered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "facealarm_alert_triggered",
			Help: "1 once the alert latch has tripped",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facealarm_alert_actions_total",
			Help: "Alert actions by outcome",
		}, []string{"action", "status"}),
		actionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facealarm_alert_action_duration_seconds",
			Help:    "Time spent running each alert action",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		m.framesRead,
		m.frameFailures,
		m.facesDetected,
		m.alertsTripped,
		m.alertTriggered,
		m.actions,
		m.actionSeconds,
	)
	return m
}

func (m *Metrics) FrameRead() {
	if m == nil {
		return
	}
	m.framesRead.Inc()
}

func (m *Metrics) FrameFailed() {
	if m == nil {
		return
	}
	m.frameFailures.Inc()
}

func (m *Metrics) FacesDetected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.facesDetected.Add(float64(n))
}

// AlertTripped implements alert.Observer.
func (m *Metrics) AlertTripped(ev alert.Event) {
	m.alertsTripped.Inc()
	m.alertTriggered.Set(1)
}

// ActionFinished implements alert.Observer.
func (m *Metrics) ActionFinished(res alert.Result) {
	status := models.StatusOK
	if res.Err != nil {
		status = models.StatusFailed
	}
	m.actions.WithLabelValues(res.Action, status).Inc()
	m.actionSeconds.WithLabelValues(res.Action).Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
