package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records storefront business events.
type StoreMetrics struct {
	ordersPlaced      prometheus.Counter
	checkoutConflicts prometheus.Counter
	checkoutRetries   prometheus.Counter
	emailsSent        *prometheus.CounterVec
	emailsFailed      *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created through checkout.",
	})
	checkoutConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_stock_conflicts_total",
		Help: "Checkout attempts rejected for insufficient stock.",
	})
	checkoutRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_tx_retries_total",
		Help: "Checkout transactions retried after serialization failures.",
	})
	emailsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Transactional emails delivered to the mail provider.",
	}, []string{"kind"})
	emailsFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_failed_total",
		Help: "Transactional emails that could not be delivered.",
	}, []string{"kind"})
	reg.MustRegister(ordersPlaced, checkoutConflicts, checkoutRetries, emailsSent, emailsFailed)
	return &StoreMetrics{
		ordersPlaced:      ordersPlaced,
		checkoutConflicts: checkoutConflicts,
		checkoutRetries:   checkoutRetries,
		emailsSent:        emailsSent,
		emailsFailed:      emailsFailed,
	}
}

// IncOrdersPlaced increments the placed-order counter.
func (s *StoreMetrics) IncOrdersPlaced() {
	if s == nil || s.ordersPlaced == nil {
		return
	}
	s.ordersPlaced.Inc()
}

// IncCheckoutConflict increments the insufficient-stock counter.
func (s *StoreMetrics) IncCheckoutConflict() {
	if s == nil || s.checkoutConflicts == nil {
		return
	}
	s.checkoutConflicts.Inc()
}

// IncCheckoutRetry increments the transaction-retry counter.
func (s *StoreMetrics) IncCheckoutRetry() {
	if s == nil || s.checkoutRetries == nil {
		return
	}
	s.checkoutRetries.Inc()
}

// IncEmailSent increments the sent counter for the named email kind.
func (s *StoreMetrics) IncEmailSent(kind string) {
	if s == nil || s.emailsSent == nil {
		return
	}
	s.emailsSent.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncEmailFailed increments the failure counter for the named email kind.
func (s *StoreMetrics) IncEmailFailed(kind string) {
	if s == nil || s.emailsFailed == nil {
		return
	}
	s.emailsFailed.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
