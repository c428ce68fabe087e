package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks enrollment transitions.
type Metrics struct {
	Requested   prometheus.Counter
	Duplicates  prometheus.Counter
	Transitions *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requested: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_enrollments_requested_total",
			Help: "Enrollment requests accepted",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_enrollments_duplicate_total",
			Help: "Enrollment requests rejected because the volunteer was already enrolled",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteerhub_enrollment_transitions_total",
			Help: "Admin decisions on enrollments by field and new value",
		}, []string{"field", "value"}),
	}
}

func (m *Metrics) IncrementRequested() {
	m.Requested.Inc()
}

func (m *Metrics) IncrementDuplicate() {
	m.Duplicates.Inc()
}

// IncrementTransition counts an approval or attendance write.
func (m *Metrics) IncrementTransition(field string, value bool) {
	v := "false"
	if value {
		v = "true"
	}
	m.Transitions.WithLabelValues(field, v).Inc()
}
