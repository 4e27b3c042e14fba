// Package metrics exposes the Prometheus counters/gauges/histograms the
// service publishes at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the service registers. It is
// constructed once at startup and threaded through the components that
// observe it, never accessed through a package global, so tests can
// register a scratch registry.
type Metrics struct {
	TicksProcessed      prometheus.Counter
	DeltasEmitted       prometheus.Counter
	DeltasDropped       *prometheus.CounterVec
	ActiveSubscribers   prometheus.Gauge
	ActiveSubscriptions prometheus.Gauge
	BroadcastLatency    prometheus.Histogram
}

// New constructs and registers the collector set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deltafeed_ticks_processed_total",
			Help: "Total number of simulator ticks processed.",
		}),
		DeltasEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deltafeed_deltas_emitted_total",
			Help: "Total number of non-empty deltas emitted by the delta engine.",
		}),
		DeltasDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deltafeed_deltas_dropped_total",
			Help: "Total number of per-subscriber delta drops, by reason.",
		}, []string{"reason"}),
		ActiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deltafeed_active_subscribers",
			Help: "Number of currently connected subscriber sessions.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deltafeed_active_subscriptions",
			Help: "Number of currently active subscriptions across all sessions.",
		}),
		BroadcastLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deltafeed_broadcast_latency_seconds",
			Help:    "Time spent handing one delta to the transport, per subscriber.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.TicksProcessed, m.DeltasEmitted, m.DeltasDropped,
		m.ActiveSubscribers, m.ActiveSubscriptions, m.BroadcastLatency,
	)
	return m
}

// DropReason enumerates the reasons the Dispatcher records a drop.
type DropReason string

const (
	DropNoToken        DropReason = "no-token"
	DropPacing         DropReason = "pacing"
	DropNoMatch        DropReason = "no-match"
	DropTransportFull  DropReason = "transport-full"
)

// IncDropped is a nil-safe convenience for the Dispatcher's drop gates.
func (m *Metrics) IncDropped(reason DropReason) {
	if m == nil {
		return
	}
	m.DeltasDropped.WithLabelValues(string(reason)).Inc()
}

// IncDeltaEmitted is a nil-safe convenience for the Delta Engine's callback.
func (m *Metrics) IncDeltaEmitted() {
	if m == nil {
		return
	}
	m.DeltasEmitted.Inc()
}

// IncTick is a nil-safe convenience for the ticker loop.
func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	m.TicksProcessed.Inc()
}

// ObserveBroadcastLatency is a nil-safe convenience for the Dispatcher.
func (m *Metrics) ObserveBroadcastLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.BroadcastLatency.Observe(d.Seconds())
}

// SetActiveSubscribers and SetActiveSubscriptions are nil-safe setters for
// the subscriber and subscription gauges. No component in this repository
// calls them, so both gauges stay at zero.
func (m *Metrics) SetActiveSubscribers(n int) {
	if m == nil {
		return
	}
	m.ActiveSubscribers.Set(float64(n))
}

func (m *Metrics) SetActiveSubscriptions(n int) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.Set(float64(n))
}
