package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records outcomes for order creation and fulfillment updates.
type OrderMetrics struct {
	reserveDuration  *prometheus.HistogramVec
	ordersCreated    prometheus.Counter
	ordersCancelled  prometheus.Counter
	reserveFailures  *prometheus.CounterVec
	compensations    prometheus.Counter
	compensationErrs prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	reserveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_reservation_duration_seconds",
		Help:    "Duration of the full reservation pass for one order.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted after successful stock reservation.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders transitioned into the cancelled state.",
	})
	reserveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservation_failures_total",
		Help: "Reservation attempts rejected by the stock ledger.",
	}, []string{"reason"})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_compensations_total",
		Help: "Compensating releases applied after a partial reservation.",
	})
	compensationErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_compensation_failures_total",
		Help: "Compensating releases that failed and need manual reconciliation.",
	})
	reg.MustRegister(reserveDuration, ordersCreated, ordersCancelled, reserveFailures, compensations, compensationErrs)
	return &OrderMetrics{
		reserveDuration:  reserveDuration,
		ordersCreated:    ordersCreated,
		ordersCancelled:  ordersCancelled,
		reserveFailures:  reserveFailures,
		compensations:    compensations,
		compensationErrs: compensationErrs,
	}
}

// ObserveReservation records the duration of one reservation pass.
func (m *OrderMetrics) ObserveReservation(outcome string, duration time.Duration) {
	if m == nil || m.reserveDuration == nil {
		return
	}
	m.reserveDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOrdersCreated increments the created-orders counter.
func (m *OrderMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrdersCancelled increments the cancelled-orders counter.
func (m *OrderMetrics) IncOrdersCancelled() {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.Inc()
}

// IncReserveFailure increments the reservation failure counter for a reason.
func (m *OrderMetrics) IncReserveFailure(reason string) {
	if m == nil || m.reserveFailures == nil {
		return
	}
	m.reserveFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCompensation increments the applied-compensation counter.
func (m *OrderMetrics) IncCompensation() {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.Inc()
}

// IncCompensationFailure increments the failed-compensation counter.
func (m *OrderMetrics) IncCompensationFailure() {
	if m == nil || m.compensationErrs == nil {
		return
	}
	m.compensationErrs.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
