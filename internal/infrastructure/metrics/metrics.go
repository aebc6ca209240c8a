// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

// Metrics holds all Prometheus collectors. Collectors register on the
// default registry at construction, so build exactly one per process.
type Metrics struct {
	// WebhooksTotal counts inbound webhook deliveries by event type and
	// dispatch status.
	WebhooksTotal *prometheus.CounterVec

	// XPAwardedTotal counts awarded XP by ledger source.
	XPAwardedTotal *prometheus.CounterVec

	// FanoutDeliveredTotal counts events accepted by at least one live
	// connection.
	FanoutDeliveredTotal prometheus.Counter

	// LiveConnections gauges currently open realtime connections.
	LiveConnections prometheus.GaugeFunc
}

// New builds and registers all collectors. connectionCount is sampled on
// scrape.
func New(connectionCount func() int) *Metrics {
	return &Metrics{
		WebhooksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "shepherd_webhooks_total",
			Help: "Inbound webhook deliveries by event type and dispatch status.",
		}, []string{"event", "status"}),
		XPAwardedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "shepherd_xp_awarded_total",
			Help: "XP awarded by ledger source.",
		}, []string{"source"}),
		FanoutDeliveredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shepherd_fanout_delivered_total",
			Help: "Events delivered to at least one live connection.",
		}),
		LiveConnections: promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "shepherd_live_connections",
			Help: "Currently open realtime connections.",
		}, func() float64 { return float64(connectionCount()) }),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT OBSERVER
// ══════════════════════════════════════════════════════════════════════════════

// Observer counts domain events as they cross the bus. Subscribed with
// SubscribeAll so new event types are counted without wiring changes.
type Observer struct {
	metrics *Metrics
}

// NewObserver creates an event-counting observer.
func NewObserver(m *Metrics) *Observer {
	return &Observer{metrics: m}
}

// Name implements shared.EventHandler.
func (o *Observer) Name() string { return "metrics_observer" }

// Handle implements shared.EventHandler.
func (o *Observer) Handle(_ context.Context, event shared.Event) error {
	if event.EventType() == shared.EventXPGained {
		if e, ok := event.(progression.XPGainedEvent); ok {
			o.metrics.XPAwardedTotal.WithLabelValues(string(e.Source)).Add(float64(e.Amount))
		}
	}
	return nil
}
