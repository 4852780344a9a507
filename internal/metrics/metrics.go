package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParsesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logreplay_parses_enqueued_total",
		Help: "Total number of parses placed on the processing queue.",
	})

	ParsesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logreplay_parses_dropped_total",
		Help: "Total number of parses rejected due to a full queue.",
	})

	ParsesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logreplay_parses_processed_total",
		Help: "Total number of parses run by the engine, labelled by outcome.",
	}, []string{"status"})

	EventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logreplay_events_dispatched_total",
		Help: "Total number of events delivered to at least one handler.",
	})

	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logreplay_events_skipped_total",
		Help: "Total number of events left undelivered after the fight end marker.",
	})

	ModuleFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logreplay_module_faults_total",
		Help: "Total number of module faults, labelled by module type and phase.",
	}, []string{"module_type", "phase"})

	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "logreplay_parse_duration_ms",
		Help:    "End-to-end parse latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logreplay_queue_utilization_ratio",
		Help: "Current parse queue utilization (0–1).",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logreplay_config_reloads_total",
		Help: "Total number of build configuration reloads, labelled by outcome.",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logreplay_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds, labelled by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
