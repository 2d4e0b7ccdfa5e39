package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MailerMetrics tracks the notification queue and outbound email sends.
type MailerMetrics struct {
	queueDepth prometheus.Gauge
	duration   *prometheus.HistogramVec
	sent       *prometheus.CounterVec
	failed     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
}

// NewMailerMetrics registers the mailer metrics on the provided registerer.
func NewMailerMetrics(reg prometheus.Registerer) *MailerMetrics {
	if reg == nil {
		return &MailerMetrics{}
	}
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mailer_queue_depth",
		Help: "Number of notifications waiting in the in-memory queue.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mailer_send_duration_seconds",
		Help:    "Duration of outbound email send attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"template"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailer_sent_total",
		Help: "Successful outbound email sends.",
	}, []string{"template"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailer_failed_total",
		Help: "Failed outbound email send attempts.",
	}, []string{"template"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailer_dropped_total",
		Help: "Queue items dropped after exhausting retries or failing validation.",
	}, []string{"template"})
	reg.MustRegister(queueDepth, duration, sent, failed, dropped)
	return &MailerMetrics{
		queueDepth: queueDepth,
		duration:   duration,
		sent:       sent,
		failed:     failed,
		dropped:    dropped,
	}
}

// SetQueueDepth records the current queue length.
func (m *MailerMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// ObserveSendDuration records the duration of one send attempt.
func (m *MailerMetrics) ObserveSendDuration(template string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(template)).Observe(duration.Seconds())
}

// IncSent increments the success counter for the named template.
func (m *MailerMetrics) IncSent(template string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(template)).Inc()
}

// IncFailed increments the failure counter for the named template.
func (m *MailerMetrics) IncFailed(template string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(template)).Inc()
}

// IncDropped increments the drop counter for the named template.
func (m *MailerMetrics) IncDropped(template string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(template)).Inc()
}

func normalizeLabel(template string) string {
	if template == "" {
		return "unknown"
	}
	return template
}
