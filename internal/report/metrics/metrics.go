package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SnapshotDuration prometheus.Histogram
	SnapshotRows     *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "volunteerhub_report_snapshot_duration_seconds",
			Help:    "Time to load the report snapshot",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "volunteerhub_report_snapshot_rows",
			Help: "Rows in the most recent report snapshot by dataset",
		}, []string{"dataset"}),
	}
}

// ObserveSnapshot records a completed load; call with the start time.
func (m *Metrics) ObserveSnapshot(start time.Time, volunteers, opportunities, enrollments int) {
	m.SnapshotDuration.Observe(time.Since(start).Seconds())
	m.SnapshotRows.WithLabelValues("volunteers").Set(float64(volunteers))
	m.SnapshotRows.WithLabelValues("opportunities").Set(float64(opportunities))
	m.SnapshotRows.WithLabelValues("enrollments").Set(float64(enrollments))
}
