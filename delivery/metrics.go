package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsNamespace = "flaptastic"

// Values of the result label on the attempts counter.
const (
	ResultDelivered = "delivered"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

type metrics struct {
	attempts  *prometheus.CounterVec
	delivered prometheus.Counter
	duration  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "delivery_attempts_total",
			Help:      "Count of delivery attempts by result",
		}, []string{
			"result",
		}),
		delivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "results_delivered_total",
			Help:      "Count of test results accepted by the ingestion endpoint",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of delivery requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
