// Package metrics provides Prometheus metrics for dinadns.
//
// dinadns runs as a short-lived hook, so there is no scrape endpoint.
// Collectors live in the default registry and are flushed to a
// node-exporter textfile with WriteTextfile.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.bluewillows.net/root/dinadns/pkg/zone"
)

// Metric names use the dinadns_ prefix.
const (
	Namespace = "dinadns"
)

var (
	// BuildInfo exposes version information.
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information about dinadns.",
		},
		[]string{"version", "go_version"},
	)

	// CandidateAttemptsTotal counts zone candidate authentication attempts.
	CandidateAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "zone_candidates_attempted_total",
			Help:      "Zone candidate authentication attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ResolutionsTotal counts zone resolutions by result ("resolved" or a failure kind).
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "zone_resolutions_total",
			Help:      "Zone resolutions by result.",
		},
		[]string{"result"},
	)

	// RecordOperationsTotal counts TXT record operations.
	RecordOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "record_operations_total",
			Help:      "TXT record operations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	// OperationDuration tracks perform/cleanup duration.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of perform and cleanup operations in seconds.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// PropagationWaitSeconds tracks how long the TXT record took to become visible.
	PropagationWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "propagation_wait_seconds",
			Help:      "Time spent waiting for TXT record propagation in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		},
	)
)

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ZoneObserver records candidate attempts from a zone.Resolver.
type ZoneObserver struct{}

// ObserveAttempt implements zone.Observer.
func (ZoneObserver) ObserveAttempt(outcome zone.Outcome) {
	CandidateAttemptsTotal.WithLabelValues(string(outcome)).Inc()
}

// ObserveResolution records the result of one zone resolution.
func ObserveResolution(err error) {
	ResolutionsTotal.WithLabelValues(resultLabel(err)).Inc()
}

// ObserveRecordOperation records one TXT record operation.
// result is "success", "not_found" or "error".
func ObserveRecordOperation(operation, result string) {
	RecordOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveDuration records how long operation took since start.
func ObserveDuration(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every metric of the default registry to path in the
// text exposition format, replacing the file atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func resultLabel(err error) string {
	if err == nil {
		return "resolved"
	}
	var pe *zone.PluginError
	if errors.As(err, &pe) {
		return pe.Kind.String()
	}
	return "error"
}

var _ zone.Observer = ZoneObserver{}
