package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring verification throughput and health
var (
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_scans_total",
			Help: "Total number of tag scans processed, by outcome",
		},
		[]string{"status"},
	)

	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verification_scan_duration_seconds",
			Help:    "Duration of verifyTag processing",
			Buckets: prometheus.DefBuckets,
		},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_submissions_total",
			Help: "Total number of submitted verifications, by committed status",
		},
		[]string{"status"},
	)

	ResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_resets_total",
			Help: "Total number of verification resets",
		},
	)

	ConflictRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_conflict_retries_total",
			Help: "Total number of save retries caused by write conflicts",
		},
	)

	LockTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_lock_timeouts_total",
			Help: "Total number of per-order lock acquisitions that timed out",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(
		ScansTotal,
		ScanDuration,
		SubmissionsTotal,
		ResetsTotal,
		ConflictRetriesTotal,
		LockTimeoutsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
