package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type domainMetrics struct {
	dbOperationDuration  *prometheus.HistogramVec
	notificationsCreated *prometheus.CounterVec
	fanOutRecipients     prometheus.Histogram
	approvals            *prometheus.CounterVec
	payments             *prometheus.CounterVec
	negativeInventory    prometheus.Counter
	authAttempts         *prometheus.CounterVec
}

func newDomainMetrics(prefix string) *domainMetrics {
	return &domainMetrics{
		dbOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		notificationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_notifications_created_total",
				Help: "Total number of notification records created by fan-out",
			},
			[]string{"type"},
		),
		fanOutRecipients: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_fanout_recipients",
				Help:    "Number of recipients per fanned-out event",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		approvals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_request_approvals_total",
				Help: "Total number of approval attempts by outcome",
			},
			[]string{"outcome"},
		),
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_payments_total",
				Help: "Total number of payment deliveries by outcome",
			},
			[]string{"outcome"},
		),
		negativeInventory: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_negative_inventory_total",
				Help: "Total number of decrements that left an item below zero",
			},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *domainMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.dbOperationDuration,
		m.notificationsCreated,
		m.fanOutRecipients,
		m.approvals,
		m.payments,
		m.negativeInventory,
		m.authAttempts,
	}
}

// Unregistered until InitMetrics so packages can record from tests
var metrics = newDomainMetrics("assetverse")

// InitMetrics rebuilds the domain metrics under prefix and registers them
func InitMetrics(prefix string, reg prometheus.Registerer) {
	metrics = newDomainMetrics(prefix)
	reg.MustRegister(metrics.collectors()...)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		metrics.dbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordFanOut counts the notifications created for one event
func RecordFanOut(notificationType string, recipients int) {
	metrics.notificationsCreated.WithLabelValues(notificationType).Add(float64(recipients))
	metrics.fanOutRecipients.Observe(float64(recipients))
}

// RecordApproval increments the approval counter for outcome
func RecordApproval(outcome string) {
	metrics.approvals.WithLabelValues(outcome).Inc()
}

// RecordPayment increments the payment counter for outcome
func RecordPayment(outcome string) {
	metrics.payments.WithLabelValues(outcome).Inc()
}

// RecordNegativeInventory counts a decrement that went below zero
func RecordNegativeInventory() {
	metrics.negativeInventory.Inc()
}

// RecordAuthAttempt increments the login counter for outcome
func RecordAuthAttempt(outcome string) {
	metrics.authAttempts.WithLabelValues(outcome).Inc()
}
