package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// clustering pipeline.
type Metrics struct {
	EventsFetched   prometheus.Counter
	MalformedEvents prometheus.Counter
	FeedRequests    *prometheus.CounterVec // labels: outcome={success,error}
	FeedDuration    prometheus.Histogram

	RunsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration prometheus.Histogram

	// Per-run cluster shape metrics.
	CandidateClusters   prometheus.Histogram
	SignificantClusters prometheus.Histogram
	ClusterSize         prometheus.Histogram

	DefinitionsCreated prometheus.Counter
	DefinitionsUpdated prometheus.Counter
	SyncErrors         prometheus.Counter

	Announcements  prometheus.Counter
	AnnounceErrors prometheus.Counter

	PipelineRunning  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EventsFetched,
		m.MalformedEvents,
		m.FeedRequests,
		m.FeedDuration,
		m.RunsTotal,
		m.RunDuration,
		m.CandidateClusters,
		m.SignificantClusters,
		m.ClusterSize,
		m.DefinitionsCreated,
		m.DefinitionsUpdated,
		m.SyncErrors,
		m.Announcements,
		m.AnnounceErrors,
		m.PipelineRunning,
		m.LastRunTimestamp,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "events_fetched_total",
			Help:      "Total events parsed from the feed across all runs.",
		}),
		MalformedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "malformed_events_total",
			Help:      "Feed features dropped for missing ids or malformed coordinates.",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "feed_requests_total",
			Help:      "Feed fetch attempts by outcome.",
		}, []string{"outcome"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_cluster",
			Name:      "feed_duration_seconds",
			Help:      "Feed fetch and decode duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "runs_total",
			Help:      "Scheduled clustering runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_cluster",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-cluster-sync run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CandidateClusters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_cluster",
			Name:      "candidate_clusters",
			Help:      "Clusters found per run before significance filtering.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		SignificantClusters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_cluster",
			Name:      "significant_clusters",
			Help:      "Clusters per run passing the significance thresholds.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		ClusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_cluster",
			Name:      "cluster_size",
			Help:      "Member count of each candidate cluster.",
			Buckets:   []float64{2, 3, 5, 10, 20, 50, 100, 250},
		}),
		DefinitionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "definitions_created_total",
			Help:      "Cluster definitions inserted on first observation of a stable key.",
		}),
		DefinitionsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "definitions_updated_total",
			Help:      "Cluster definitions updated with a version bump.",
		}),
		SyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "sync_errors_total",
			Help:      "Per-cluster summary or persistence failures.",
		}),
		Announcements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "announcements_total",
			Help:      "Catalog changes published to the sink topic.",
		}),
		AnnounceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_cluster",
			Name:      "announce_errors_total",
			Help:      "Failed sink-topic publish batches.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_cluster",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_cluster",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}
