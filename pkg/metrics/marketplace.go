package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partsdealer"

// Marketplace records checkout, payment and outbox activity. A nil
// *Marketplace is valid and records nothing.
type Marketplace struct {
	ordersCreated      prometheus.Counter
	ordersCanceled     prometheus.Counter
	paymentAttempts    *prometheus.CounterVec
	gatewayDuration    *prometheus.HistogramVec
	checkoutRejections *prometheus.CounterVec
	outboxPublished    *prometheus.CounterVec
}

// NewMarketplace registers the collectors on reg.
func NewMarketplace(reg prometheus.Registerer) *Marketplace {
	if reg == nil {
		return &Marketplace{}
	}
	m := &Marketplace{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders committed by checkout.",
		}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Orders canceled by buyers.",
		}),
		paymentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_attempts_total",
			Help:      "Payment attempts by terminal status.",
		}, []string{"status"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_gateway_duration_seconds",
			Help:      "Latency of payment gateway submissions.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"provider"}),
		checkoutRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejections_total",
			Help:      "Checkouts refused before an order was written.",
		}, []string{"reason"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox rows processed by the publisher.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ordersCreated, m.ordersCanceled, m.paymentAttempts,
		m.gatewayDuration, m.checkoutRejections, m.outboxPublished)
	return m
}

func (m *Marketplace) OrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Marketplace) OrderCanceled() {
	if m == nil || m.ordersCanceled == nil {
		return
	}
	m.ordersCanceled.Inc()
}

// PaymentAttempt counts a terminal attempt ("succeeded" or "failed").
func (m *Marketplace) PaymentAttempt(status string) {
	if m == nil || m.paymentAttempts == nil {
		return
	}
	m.paymentAttempts.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Marketplace) ObserveGateway(provider string, d time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

// CheckoutRejected counts a refused checkout by error code.
func (m *Marketplace) CheckoutRejected(reason string) {
	if m == nil || m.checkoutRejections == nil {
		return
	}
	m.checkoutRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// OutboxPublished counts publisher outcomes ("published", "retry", "dead").
func (m *Marketplace) OutboxPublished(result string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(result)).Inc()
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
