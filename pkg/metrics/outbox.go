package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publisher drain activity.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	deadL     prometheus.Counter
	batchTime prometheus.Histogram
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to Pub/Sub.",
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that errored.",
	}, []string{"event_type"})
	deadL := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_dead_lettered_total",
		Help: "Outbox events moved to the dead letter queue.",
	})
	batchTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of one outbox drain batch in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, failures, deadL, batchTime)
	return &OutboxMetrics{
		published: published,
		failures:  failures,
		deadL:     deadL,
		batchTime: batchTime,
	}
}

// IncPublished increments the published counter for the event type.
func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure increments the publish failure counter for the event type.
func (o *OutboxMetrics) IncFailure(eventType string) {
	if o == nil || o.failures == nil {
		return
	}
	o.failures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDeadLettered increments the DLQ counter.
func (o *OutboxMetrics) IncDeadLettered() {
	if o == nil || o.deadL == nil {
		return
	}
	o.deadL.Inc()
}

// ObserveBatch records the duration of one drain batch.
func (o *OutboxMetrics) ObserveBatch(elapsed time.Duration) {
	if o == nil || o.batchTime == nil {
		return
	}
	o.batchTime.Observe(elapsed.Seconds())
}
