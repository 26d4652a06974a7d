package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation results.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treadlogic",
		Subsystem: "workouts",
		Name:      "operations_total",
		Help:      "Workout collection operations by operation and result.",
	}, []string{"operation", "result"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "treadlogic",
		Subsystem: "workouts",
		Name:      "operation_duration_seconds",
		Help:      "Duration of the load-mutate-save cycle per operation.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})
	plansStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "treadlogic",
		Subsystem: "workouts",
		Name:      "plans_stored",
		Help:      "Number of plans in the collection as of the last list.",
	})
)

func init() {
	prometheus.MustRegister(operationsTotal, operationDuration, plansStored)
}

// RecordOperation counts one operation and observes its duration.
func RecordOperation(operation, result string, started time.Time) {
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordPlanCount updates the stored-plans gauge after a list.
func RecordPlanCount(n int) {
	plansStored.Set(float64(n))
}
