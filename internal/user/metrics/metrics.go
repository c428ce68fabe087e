package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks onboarding and profile maintenance.
type Metrics struct {
	ProfilesCreated      prometheus.Counter
	ProfilesUpdated      prometheus.Counter
	RoleChanges          *prometheus.CounterVec
	ProfileWriteDuration prometheus.Histogram
}

// New registers the user module metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against reg; tests pass a fresh prometheus.NewRegistry().
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProfilesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_profiles_created_total",
			Help: "Volunteer profiles created (onboarding completed)",
		}),
		ProfilesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "volunteerhub_profiles_updated_total",
			Help: "Volunteer profile updates",
		}),
		RoleChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteerhub_role_changes_total",
			Help: "Out-of-band role changes by target role",
		}, []string{"role"}),
		ProfileWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "volunteerhub_profile_write_duration_seconds",
			Help:    "Duration of profile create and update operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementProfilesCreated() {
	m.ProfilesCreated.Inc()
}

func (m *Metrics) IncrementProfilesUpdated() {
	m.ProfilesUpdated.Inc()
}

func (m *Metrics) IncrementRoleChange(role string) {
	m.RoleChanges.WithLabelValues(role).Inc()
}

// ObserveProfileWrite records a profile write; call with the start time.
func (m *Metrics) ObserveProfileWrite(start time.Time) {
	m.ProfileWriteDuration.Observe(time.Since(start).Seconds())
}
