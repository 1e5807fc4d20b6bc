// Package metrics holds the Prometheus collectors the engine updates.
//
// Collectors register with the default registry on import. Serve them with
// promhttp.Handler(), as the arbor CLI does behind --metrics-addr.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ElementsCreated counts elements allocated by any arena.
	ElementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_elements_created_total",
		Help: "Total elements allocated",
	})

	// ElementsDisposed counts elements released by Dispose.
	ElementsDisposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_elements_disposed_total",
		Help: "Total elements disposed",
	})

	// ElementsLive tracks currently allocated elements across arenas.
	ElementsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbor_elements_live",
		Help: "Elements currently allocated",
	})

	// KeyCollisions counts rejected re-keying attempts.
	KeyCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_key_collisions_total",
		Help: "Total rejected key assignments",
	})

	// RenderDuration tracks render pass latency.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbor_render_duration_seconds",
		Help:    "Render pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	})

	// RecordsMaterialized counts records turned into elements, by mode
	// ("full", "incremental" or "changed").
	RecordsMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbor_records_materialized_total",
		Help: "Total records materialized by render mode",
	}, []string{"mode"})

	// RenderErrors counts adaptor failures by error kind.
	RenderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbor_render_errors_total",
		Help: "Total adaptor render failures by kind",
	}, []string{"kind"})

	// QueryTotal counts queries by form ("pattern", "predicate", "descendants").
	QueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbor_query_total",
		Help: "Total queries by form",
	}, []string{"form"})

	// QueryDuration tracks query latency by form.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbor_query_duration_seconds",
		Help:    "Query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{"form"})

	// EventsEnqueued counts events accepted by event queues.
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_events_enqueued_total",
		Help: "Total events accepted by event queues",
	})

	// EventsDropped counts events discarded by a full drop-oldest queue.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_events_dropped_total",
		Help: "Total events discarded on queue overflow",
	})

	// EventsDispatched counts events delivered by the pump, by outcome
	// ("delivered", "unhandled", "failed").
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbor_events_dispatched_total",
		Help: "Total events dispatched by outcome",
	}, []string{"outcome"})
)
