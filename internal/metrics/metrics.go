// Package metrics holds the Prometheus collectors for the telemetry
// pipeline, exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsIngested counts readings that were parsed, persisted and
	// broadcast.
	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sense_ingest_readings_total",
		Help: "Number of sensor readings successfully ingested.",
	})

	// IngestDropped counts bus messages dropped because they were malformed
	// or incomplete.
	IngestDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sense_ingest_dropped_total",
		Help: "Number of bus messages dropped during ingestion.",
	})

	// StoreAppendErrors counts readings lost because the store rejected the
	// append.
	StoreAppendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sense_store_append_errors_total",
		Help: "Number of failed reading appends.",
	})

	// ReportsGenerated counts successfully generated reports.
	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sense_reports_generated_total",
		Help: "Number of reports generated.",
	})

	// LiveSubscribers tracks the number of currently connected live viewers.
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sense_live_subscribers",
		Help: "Number of currently connected live subscribers.",
	})
)
