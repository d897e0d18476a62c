package booking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the booking service.
type Metrics struct {
	// TransitionsTotal counts lifecycle operations by kind and outcome.
	TransitionsTotal *prometheus.CounterVec

	// SlotConflictsTotal counts creates and reassignments lost to a competing claim.
	SlotConflictsTotal prometheus.Counter

	// NotificationFailuresTotal counts dispatches the sink refused.
	NotificationFailuresTotal *prometheus.CounterVec

	// PaymentFailuresTotal counts charge and refund failures.
	PaymentFailuresTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_transitions_total",
				Help:      "Total number of booking lifecycle operations",
			},
			[]string{"transition", "outcome"},
		),

		SlotConflictsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_slot_conflicts_total",
				Help:      "Total number of slot claims lost to a concurrent booking",
			},
		),

		NotificationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_notification_failures_total",
				Help:      "Total number of notification dispatches that could not be enqueued",
			},
			[]string{"template"},
		),

		PaymentFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_payment_failures_total",
				Help:      "Total number of failed payment gateway calls",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observeTransition(kind TransitionKind, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
	}
	m.TransitionsTotal.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) incSlotConflict() {
	if m == nil {
		return
	}
	m.SlotConflictsTotal.Inc()
}

func (m *Metrics) incNotificationFailure(template string) {
	if m == nil {
		return
	}
	m.NotificationFailuresTotal.WithLabelValues(template).Inc()
}

func (m *Metrics) incPaymentFailure(operation string) {
	if m == nil {
		return
	}
	m.PaymentFailuresTotal.WithLabelValues(operation).Inc()
}
