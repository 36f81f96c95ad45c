package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics counts the business events worth alerting on.
type MarketplaceMetrics struct {
	paymentsSettled   *prometheus.CounterVec
	paymentsExpired   prometheus.Counter
	orderTransitions  *prometheus.CounterVec
	webhookRejections *prometheus.CounterVec
	buyboxSelections  prometheus.Counter
}

// NewMarketplaceMetrics registers the marketplace counters on the provided
// registerer. A nil registerer yields a no-op recorder for tests.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	paymentsSettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Payments moved to a terminal status, by provider and status.",
	}, []string{"provider", "status"})
	paymentsExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_expired_total",
		Help: "Pending payments expired past their deadline.",
	})
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions, by target status.",
	}, []string{"status"})
	webhookRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_rejections_total",
		Help: "Webhook deliveries rejected before settlement, by reason.",
	}, []string{"provider", "reason"})
	buyboxSelections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "buybox_selections_total",
		Help: "Buy Box winner selections performed.",
	})
	reg.MustRegister(paymentsSettled, paymentsExpired, orderTransitions, webhookRejections, buyboxSelections)
	return &MarketplaceMetrics{
		paymentsSettled:   paymentsSettled,
		paymentsExpired:   paymentsExpired,
		orderTransitions:  orderTransitions,
		webhookRejections: webhookRejections,
		buyboxSelections:  buyboxSelections,
	}
}

// IncPaymentSettled records a payment reaching a terminal status.
func (m *MarketplaceMetrics) IncPaymentSettled(provider, status string) {
	if m == nil || m.paymentsSettled == nil {
		return
	}
	m.paymentsSettled.WithLabelValues(normalizeLabel(provider), normalizeLabel(status)).Inc()
}

// IncPaymentExpired records a pending payment crossing its deadline.
func (m *MarketplaceMetrics) IncPaymentExpired() {
	if m == nil || m.paymentsExpired == nil {
		return
	}
	m.paymentsExpired.Inc()
}

// IncOrderTransition records an order status change.
func (m *MarketplaceMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncWebhookRejected records a webhook rejected before it could settle.
func (m *MarketplaceMetrics) IncWebhookRejected(provider, reason string) {
	if m == nil || m.webhookRejections == nil {
		return
	}
	m.webhookRejections.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Inc()
}

// IncBuyBoxSelection records one winner selection.
func (m *MarketplaceMetrics) IncBuyBoxSelection() {
	if m == nil || m.buyboxSelections == nil {
		return
	}
	m.buyboxSelections.Inc()
}
