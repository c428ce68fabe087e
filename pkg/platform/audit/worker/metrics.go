package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_audit_relay_published_total",
			Help: "Audit outbox entries published to Kafka",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_audit_relay_failures_total",
			Help: "Relay batches that stopped on a publish failure",
		}),
	}
}
