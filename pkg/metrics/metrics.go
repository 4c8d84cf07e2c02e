package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_orders_processed_total",
			Help: "Orders processed by the matching engine, by terminal outcome",
		},
		[]string{"pair", "type", "outcome"},
	)
	CancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_cancels_total",
			Help: "Cancellation requests, by outcome",
		},
		[]string{"pair", "outcome"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_trades_total",
			Help: "Trades produced by the matching engine",
		},
		[]string{"pair"},
	)
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_validation_failures_total",
			Help: "Order requests rejected before reaching a book",
		},
		[]string{"reason"},
	)
	ProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchbook_process_duration_seconds",
			Help:    "Time spent inside the book for one order",
			Buckets: prometheus.ExponentialBuckets(0.000005, 2, 16),
		},
		[]string{"pair"},
	)
	RecordFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_record_failures_total",
			Help: "Executions that could not be handed to a recorder",
		},
		[]string{"recorder"},
	)
	RestingOrders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchbook_resting_orders",
			Help: "Orders currently resting in a book",
		},
		[]string{"pair"},
	)
	WorkerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchbook_worker_events_total",
			Help: "Execution events consumed by the persistence worker",
		},
		[]string{"source", "status"},
	)
)

var once sync.Once

// InitMetrics registers every collector with the default registry. Safe to
// call more than once.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(OrdersProcessedTotal)
		prometheus.MustRegister(CancelsTotal)
		prometheus.MustRegister(TradesTotal)
		prometheus.MustRegister(ValidationFailuresTotal)
		prometheus.MustRegister(ProcessDuration)
		prometheus.MustRegister(RecordFailuresTotal)
		prometheus.MustRegister(RestingOrders)
		prometheus.MustRegister(WorkerEventsTotal)
	})
}
