package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout attempts by outcome.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

// Checkout outcomes besides ResultOK.
const (
	CheckoutReplayed = "replayed"
	CheckoutFailed   = "failed"
)

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome and error code.",
	}, []string{"outcome", "code"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(attempts, duration)
	return &CheckoutMetrics{attempts: attempts, duration: duration}
}

// Observe records the outcome of one checkout. code is empty unless it failed.
func (c *CheckoutMetrics) Observe(outcome, code string, elapsed time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	if code == "" {
		code = "none"
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome), code).Inc()
	c.duration.Observe(elapsed.Seconds())
}
