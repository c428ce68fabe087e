package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts catalog maintenance by admins.
type Metrics struct {
	Mutations *prometheus.CounterVec
	Listed    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteerhub_opportunity_mutations_total",
			Help: "Opportunity catalog changes by action",
		}, []string{"action"}),
		Listed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteerhub_opportunity_listings_total",
			Help: "Opportunity list requests by view",
		}, []string{"view"}),
	}
}

// IncrementMutation records a catalog change: create, update, delete, archive,
// unarchive or image.
func (m *Metrics) IncrementMutation(action string) {
	m.Mutations.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementListed(view string) {
	m.Listed.WithLabelValues(view).Inc()
}
