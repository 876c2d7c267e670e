package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration metrics
var (
	// RegistrationsTotal counts registration attempts by outcome: "success"
	// or the failure kind.
	RegistrationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	RegistrationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registration_duration_seconds",
			Help:      "Registration latency in seconds, including file storage",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	FilesStoredTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_stored_total",
			Help:      "Total number of uploaded files written to the file store",
		},
	)

	FileBytesStoredTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_bytes_stored_total",
			Help:      "Total bytes written to the file store",
		},
	)

	// FileCleanupTotal counts deletions of stored files whose rows were
	// rolled back or removed. result: deleted|missing|failed
	FileCleanupTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_cleanup_total",
			Help:      "Total number of stored file deletions by result",
		},
		[]string{"result"},
	)

	RegistrationsInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registrations_in_flight",
			Help:      "Registrations currently holding a limiter slot",
		},
	)
)

// ObserveRegistration records one finished registration attempt.
func ObserveRegistration(outcome string, d time.Duration) {
	RegistrationsTotal.WithLabelValues(outcome).Inc()
	RegistrationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// FileStored records one file written to the store.
func FileStored(size int64) {
	FilesStoredTotal.Inc()
	FileBytesStoredTotal.Add(float64(size))
}

// FileCleanup records the result of deleting one stored file.
func FileCleanup(result string) {
	FileCleanupTotal.WithLabelValues(result).Inc()
}
