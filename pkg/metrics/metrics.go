package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outbox drain and reconciliation activity.
type SyncMetrics struct {
	pushed        prometheus.Counter
	pushFailures  prometheus.Counter
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	pushed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_pushed_total",
		Help: "Outbox entries acknowledged by the remote.",
	})
	pushFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_push_failures_total",
		Help: "Outbox pushes that halted the drain.",
	})
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Completed sync cycles by result.",
	}, []string{"result"})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_cycle_duration_seconds",
		Help:    "Duration of full push+pull cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(pushed, pushFailures, cycles, cycleDuration)
	return &SyncMetrics{
		pushed:        pushed,
		pushFailures:  pushFailures,
		cycles:        cycles,
		cycleDuration: cycleDuration,
	}
}

// IncPushed counts one acknowledged outbox entry.
func (s *SyncMetrics) IncPushed() {
	if s == nil || s.pushed == nil {
		return
	}
	s.pushed.Inc()
}

// IncPushFailure counts one halted drain.
func (s *SyncMetrics) IncPushFailure() {
	if s == nil || s.pushFailures == nil {
		return
	}
	s.pushFailures.Inc()
}

// ObserveCycle records the outcome and duration of a sync cycle.
func (s *SyncMetrics) ObserveCycle(result string, duration time.Duration) {
	if s == nil || s.cycles == nil {
		return
	}
	s.cycles.WithLabelValues(normalizeLabel(result)).Inc()
	s.cycleDuration.Observe(duration.Seconds())
}

// CheckoutMetrics records checkout commits and failures.
type CheckoutMetrics struct {
	checkouts *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout commits in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(checkouts, duration)
	return &CheckoutMetrics{checkouts: checkouts, duration: duration}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(result string, duration time.Duration) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
	c.duration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
