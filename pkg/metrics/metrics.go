package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Dispatch metrics
	EmailsSent        prometheus.Counter
	SendFailures      prometheus.Counter
	AlreadyRecorded   prometheus.Counter
	CycleResets       prometheus.Counter
	DueSubscribers    prometheus.Gauge
	SelectionDuration prometheus.Histogram
	DispatchDuration  prometheus.Histogram

	// Webhook metrics
	PaymentsReceived *prometheus.CounterVec
	ActivationErrors prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emails_sent_total",
			Help:      "Total number of phrase emails successfully sent",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "send_failures_total",
			Help:      "Total number of failed phrase sends",
		}),
		AlreadyRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "deliveries_already_recorded_total",
			Help:      "Deliveries whose history row already existed (retried sends)",
		}),
		CycleResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_resets_total",
			Help:      "Subscribers who exhausted the catalog and restarted a cycle",
		}),
		DueSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "due_subscribers",
			Help:      "Subscribers due for a send in the last scheduler pass",
		}),
		SelectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "selection_duration_seconds",
			Help:      "Time spent selecting the next phrase",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent on a full per-subscriber dispatch sequence",
			Buckets:   prometheus.DefBuckets,
		}),
		PaymentsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payments_received_total",
			Help:      "Payment provider notifications by provider and status",
		}, []string{"provider", "status"}),
		ActivationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_activation_errors_total",
			Help:      "Plan activations that failed after an authorised payment",
		}),
	}
}
