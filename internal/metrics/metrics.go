// Package metrics holds the prometheus collectors for the booking flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketing"

// Booking outcomes.
const (
	OutcomeConfirmed      = "confirmed"
	OutcomeRejected       = "rejected"
	OutcomeReleased       = "released"
	OutcomePartialFailure = "partial_failure"
)

// Reservation results.
const (
	ReserveOK           = "ok"
	ReserveInsufficient = "insufficient"
	ReserveNotBookable  = "not_bookable"
	ReserveError        = "error"
)

// Metrics groups every collector. A nil *Metrics records nothing.
type Metrics struct {
	bookings      *prometheus.CounterVec
	reservations  *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	activeHolds   prometheus.Gauge
	gatherer      prometheus.Gatherer
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by terminal outcome.",
		}, []string{"outcome"}),
		reservations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_reservations_total",
			Help:      "Inventory reservation attempts by result.",
		}, []string{"result"}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_provider_calls_total",
			Help:      "Payment provider calls by operation and result.",
		}, []string{"op", "result"}),
		activeHolds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_active_holds",
			Help:      "Reservations currently held and awaiting commit or release.",
		}),
		gatherer: reg,
	}
}

// Booking records a booking outcome.
func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

// Reservation records a reservation result.
func (m *Metrics) Reservation(result string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(result).Inc()
}

// ProviderCall records one payment provider call.
func (m *Metrics) ProviderCall(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerCalls.WithLabelValues(op, result).Inc()
}

// HoldOpened and HoldClosed track the active holds gauge.
func (m *Metrics) HoldOpened() {
	if m == nil {
		return
	}
	m.activeHolds.Inc()
}

func (m *Metrics) HoldClosed() {
	if m == nil {
		return
	}
	m.activeHolds.Dec()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
