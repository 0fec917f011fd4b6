package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReceiptMetrics counts rendered receipts and the discounts granted on them.
type ReceiptMetrics struct {
	Rendered *prometheus.CounterVec
	Discount *prometheus.HistogramVec
}

// NewReceiptMetrics registers receipt collectors on reg (default registerer when nil).
func NewReceiptMetrics(namespace string, reg prometheus.Registerer) *ReceiptMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &ReceiptMetrics{
		Rendered: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_rendered_total",
			Help:      "Count of receipt render attempts by currency and outcome.",
		}, []string{"currency", "result"})),
		Discount: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_discount_amount",
			Help:      "Total discount granted per rendered receipt, in currency units.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"currency"})),
	}
}

// ObserveRendered records a successful render with its total discount.
func (m *ReceiptMetrics) ObserveRendered(currency string, totalDiscount float64) {
	if m == nil {
		return
	}
	m.Rendered.WithLabelValues(currency, "ok").Inc()
	m.Discount.WithLabelValues(currency).Observe(totalDiscount)
}

// ObserveFailed records a render rejected with reason.
func (m *ReceiptMetrics) ObserveFailed(currency, reason string) {
	if m == nil {
		return
	}
	m.Rendered.WithLabelValues(currency, reason).Inc()
}
