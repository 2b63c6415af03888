// Package metrics wraps a Prometheus registry for the indexer's
// operational counters and gauges, exposed over HTTP via promhttp.
// The registry itself satisfies github.com/luxfi/metric.Registerer,
// the same interface the teacher's network package accepts, so it can
// be threaded into any teacher-derived component that still expects
// one.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the indexer reports.
type Registry struct {
	registry *prometheus.Registry

	BatchesProcessed  *prometheus.CounterVec
	EventsProcessed   *prometheus.CounterVec
	BlocksBehind      *prometheus.GaugeVec
	CheckpointWrites  *prometheus.CounterVec
	IngestRowsFlushed *prometheus.CounterVec
	IngestFlushErrors *prometheus.CounterVec
	ActiveWorkers     prometheus.Gauge
	CronJobRuns       *prometheus.CounterVec
	CronJobErrors     *prometheus.CounterVec
	PubsubPublishes   *prometheus.CounterVec
	PubsubFailures    *prometheus.CounterVec
}

// New registers and returns every indexer metric against a fresh
// registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		BatchesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "batches_processed_total",
			Help:      "Batches of logs processed by a chain worker.",
		}, []string{"chain_id"}),
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "events_processed_total",
			Help:      "Decoded pool events processed, by chain and event type.",
		}, []string{"chain_id", "event_type"}),
		BlocksBehind: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dexindexer",
			Name:      "blocks_behind",
			Help:      "Seconds between the latest processed block's timestamp and wall clock.",
		}, []string{"chain_id"}),
		CheckpointWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "checkpoint_writes_total",
			Help:      "Sync checkpoint writes, by chain and outcome.",
		}, []string{"chain_id", "outcome"}),
		IngestRowsFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "ingest_rows_flushed_total",
			Help:      "Rows flushed to ClickHouse, by ingestor rate and table.",
		}, []string{"rate", "table"}),
		IngestFlushErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "ingest_flush_errors_total",
			Help:      "Failed flush attempts, by ingestor rate and table.",
		}, []string{"rate", "table"}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dexindexer",
			Name:      "active_workers",
			Help:      "Number of chain workers currently running.",
		}),
		CronJobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "cron_job_runs_total",
			Help:      "Cron job executions, by job name.",
		}, []string{"job"}),
		CronJobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "cron_job_errors_total",
			Help:      "Cron job failures, by job name.",
		}, []string{"job"}),
		PubsubPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "pubsub_publishes_total",
			Help:      "Tip-broker messages published, by topic family.",
		}, []string{"topic"}),
		PubsubFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexindexer",
			Name:      "pubsub_publish_failures_total",
			Help:      "Tip-broker publish failures, by topic family.",
		}, []string{"topic"}),
	}

	reg.MustRegister(
		r.BatchesProcessed, r.EventsProcessed, r.BlocksBehind, r.CheckpointWrites,
		r.IngestRowsFlushed, r.IngestFlushErrors, r.ActiveWorkers,
		r.CronJobRuns, r.CronJobErrors, r.PubsubPublishes, r.PubsubFailures,
	)
	return r
}

// ObservePublish records a pubsub publish attempt's outcome, satisfying
// internal/pubsub.MetricsRecorder.
func (r *Registry) ObservePublish(topic string, ok bool) {
	if ok {
		r.PubsubPublishes.WithLabelValues(topic).Inc()
		return
	}
	r.PubsubFailures.WithLabelValues(topic).Inc()
}

// Registerer exposes the underlying *prometheus.Registry for code
// that accepts github.com/luxfi/metric.Registerer (e.g. a teacher
// component threaded through unchanged).
func (r *Registry) Registerer() *prometheus.Registry {
	return r.registry
}

// Serve runs the /metrics HTTP endpoint until ctx is canceled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
