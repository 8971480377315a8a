package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for matching operations.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	NewMatchGroups    prometheus.Counter
	NotificationsSent prometheus.Counter
	SchoolReportsSent prometheus.Counter
	RecordsMarkedSeen prometheus.Counter
	RecordsScanned    prometheus.Histogram
	RunLatency        prometheus.Histogram
}

// New registers and returns matching metrics collectors.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tandem_matching_runs_total",
			Help: "Total number of matching runs, labeled by outcome",
		}, []string{"outcome"}),
		NewMatchGroups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tandem_matching_new_match_groups_total",
			Help: "Total number of confirmed new match groups",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tandem_matching_notifications_sent_total",
			Help: "Total number of per-owner match notifications sent",
		}),
		SchoolReportsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tandem_matching_school_reports_sent_total",
			Help: "Total number of escalation reports sent to the receiving authority",
		}),
		RecordsMarkedSeen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tandem_matching_records_marked_seen_total",
			Help: "Total number of match records marked seen by matching runs",
		}),
		RecordsScanned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tandem_matching_records_scanned",
			Help:    "Distribution of record counts scanned per identifier",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tandem_matching_run_latency_seconds",
			Help:    "Latency of matching runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementRuns(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRunLatency(seconds float64) {
	m.RunLatency.Observe(seconds)
}
