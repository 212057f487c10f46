package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	NotificationOutcomeSent     = "sent"
	NotificationOutcomeRetry    = "retry"
	NotificationOutcomeFailed   = "failed"
	NotificationOutcomeEnqueued = "enqueued"
)

// NotificationMetrics makes outbox delivery visible without touching request latency.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	backlog    prometheus.Gauge
}

func NewNotificationMetrics(cfg Config) *NotificationMetrics {
	return newNotificationMetrics(prometheus.DefaultRegisterer, cfg)
}

func newNotificationMetrics(registerer prometheus.Registerer, cfg Config) *NotificationMetrics {
	constLabels := serviceLabels(cfg)

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "volunteerhub_notifications_total",
		Help:        "Notification messages by event and delivery outcome.",
		ConstLabels: constLabels,
	}, []string{"event", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "volunteerhub_notification_send_duration_seconds",
		Help:        "Time spent in the email provider per message.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"event"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "volunteerhub_notification_backlog",
		Help:        "Pending notification messages seen by the last dispatch run.",
		ConstLabels: constLabels,
	})

	deliveries = registerOrReuse(registerer, deliveries).(*prometheus.CounterVec)
	latency = registerOrReuse(registerer, latency).(*prometheus.HistogramVec)
	backlog = registerOrReuse(registerer, backlog).(prometheus.Gauge)

	return &NotificationMetrics{deliveries: deliveries, latency: latency, backlog: backlog}
}

func (m *NotificationMetrics) IncOutcome(event, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(event, outcome).Inc()
}

func (m *NotificationMetrics) ObserveSend(event string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(event).Observe(d.Seconds())
}

func (m *NotificationMetrics) SetBacklog(n int) {
	if m == nil {
		return
	}
	m.backlog.Set(float64(n))
}
