package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout orchestration outcomes.
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	succeeded prometheus.Counter
	rejected  *prometheus.CounterVec
	failed    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout execution in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	succeeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_succeeded_total",
		Help: "Checkouts that produced a payment handoff.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejected_total",
		Help: "Checkouts rejected before any external call.",
	}, []string{"reason"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Checkouts that failed after validation.",
	})
	reg.MustRegister(duration, succeeded, rejected, failed)
	return &CheckoutMetrics{
		duration:  duration,
		succeeded: succeeded,
		rejected:  rejected,
		failed:    failed,
	}
}

// ObserveDuration records the execution time for the given outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncSucceeded increments the success counter.
func (c *CheckoutMetrics) IncSucceeded() {
	if c == nil || c.succeeded == nil {
		return
	}
	c.succeeded.Inc()
}

// IncRejected increments the rejection counter for the given reason.
func (c *CheckoutMetrics) IncRejected(reason string) {
	if c == nil || c.rejected == nil {
		return
	}
	c.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncFailed increments the failure counter.
func (c *CheckoutMetrics) IncFailed() {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.Inc()
}
