// Package observability holds the Prometheus collectors for the cache.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperengineering/healthcache/internal/types"
)

const namespace = "healthcache"

var (
	recordsWrittenCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "records_written_total",
		Help:      "Number of records written to the cache, by kind and sync mode.",
	}, []string{"kind", "mode"})

	recordsDeletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "records_deleted_total",
		Help:      "Number of delete changes applied to the cache.",
	})

	codecErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "codec_errors_total",
		Help:      "Number of source rows skipped because they failed to decode or validate.",
	}, []string{"kind"})

	changesSkippedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "changes_skipped_total",
		Help:      "Number of upsert changes not applied, by reason.",
	}, []string{"reason"})

	kindFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "kind_failures_total",
		Help:      "Number of per-kind bulk reads that failed during backfill.",
	}, []string{"kind"})

	runCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of sync runs by mode and outcome.",
	}, []string{"mode", "outcome"})

	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of sync runs by mode.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"mode"})

	lastSuccessGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync run by mode.",
	}, []string{"mode"})

	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "in_flight",
		Help:      "1 while a sync run holds the cursor, 0 otherwise.",
	})

	snapshotGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "last_snapshot_timestamp_seconds",
		Help:      "Unix timestamp of the most recent cache snapshot.",
	})
)

func init() {
	prometheus.MustRegister(
		recordsWrittenCounter,
		recordsDeletedCounter,
		codecErrorCounter,
		changesSkippedCounter,
		kindFailureCounter,
		runCounter,
		runDuration,
		lastSuccessGauge,
		inFlightGauge,
		snapshotGauge,
	)
}

// Skip reasons for RecordChangeSkipped.
const (
	SkipSelfOrigin  = "self_origin"
	SkipUnsupported = "unsupported_kind"
)

// RecordWritten counts n rows of kind written by a run of mode.
func RecordWritten(kind string, mode types.SyncMode, n int) {
	if n <= 0 {
		return
	}
	recordsWrittenCounter.WithLabelValues(kind, string(mode)).Add(float64(n))
}

// RecordDeleted counts one applied delete.
func RecordDeleted() {
	recordsDeletedCounter.Inc()
}

// RecordCodecError counts one skipped row of kind.
func RecordCodecError(kind string) {
	codecErrorCounter.WithLabelValues(kind).Inc()
}

// RecordChangeSkipped counts one upsert that was not applied.
func RecordChangeSkipped(reason string) {
	changesSkippedCounter.WithLabelValues(reason).Inc()
}

// RecordKindFailure counts one failed bulk read.
func RecordKindFailure(kind string) {
	kindFailureCounter.WithLabelValues(kind).Inc()
}

// RecordRun observes a finished sync run.
func RecordRun(run types.SyncRun) {
	runCounter.WithLabelValues(string(run.Mode), string(run.Outcome)).Inc()
	runDuration.WithLabelValues(string(run.Mode)).Observe(run.Duration().Seconds())
	if run.Outcome == types.OutcomeSucceeded && !run.FinishedAt.IsZero() {
		lastSuccessGauge.WithLabelValues(string(run.Mode)).Set(float64(run.FinishedAt.Unix()))
	}
}

// SetInFlight flips the in-flight gauge.
func SetInFlight(inFlight bool) {
	if inFlight {
		inFlightGauge.Set(1)
		return
	}
	inFlightGauge.Set(0)
}

// RecordSnapshot updates the snapshot watermark gauge.
func RecordSnapshot(ts time.Time) {
	if ts.IsZero() {
		return
	}
	snapshotGauge.Set(float64(ts.Unix()))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
