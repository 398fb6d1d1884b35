package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	FragmentsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_fragments_extracted_total",
		Help: "Number of graph fragments extracted from XML documents",
	})

	NodesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_nodes_extracted_total",
			Help: "Number of node records extracted",
		},
		[]string{"label"},
	)

	RelationshipsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_relationships_extracted_total",
			Help: "Number of relationship records extracted",
		},
		[]string{"type"},
	)

	// Load metrics
	LoadOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_load_operations_total",
			Help: "Number of merge operations issued against the graph database",
		},
		[]string{"op", "status"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ingest_load_duration_seconds",
			Help: "Time spent loading fragments into the graph database",
		},
		[]string{"status"},
	)

	// Flow metrics
	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_task_runs_total",
			Help: "Number of orchestration task runs",
		},
		[]string{"task", "status"},
	)

	TaskRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_task_retries_total",
			Help: "Number of orchestration task retries",
		},
		[]string{"task"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ingest_task_duration_seconds",
			Help: "Time spent in orchestration tasks",
		},
		[]string{"task"},
	)
)
