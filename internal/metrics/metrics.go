package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent metrics
	AgentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_agent_runs_total",
			Help: "Total number of agent analysis runs",
		},
		[]string{"agent", "status"}, // status: success|error
	)

	AgentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_agent_duration_seconds",
			Help:    "Agent analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	SuggestionsProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_suggestions_produced_total",
			Help: "Total suggestions produced by agents",
		},
		[]string{"agent", "target_type"},
	)

	// Workflow metrics
	RuleExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_rule_executions_total",
			Help: "Total workflow rule executions",
		},
		[]string{"rule", "status"}, // status: completed|failed
	)

	ActionExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_action_executions_total",
			Help: "Total workflow action executions",
		},
		[]string{"action", "status"},
	)

	// Queue metrics
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scribe_queue_depth",
			Help: "Number of tasks currently queued",
		},
	)

	QueueProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scribe_queue_processing",
			Help: "Number of tasks currently processing",
		},
	)

	TaskRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_task_retries_total",
			Help: "Total task retry attempts",
		},
	)

	TasksCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_tasks_completed_total",
			Help: "Total tasks finished by terminal status",
		},
		[]string{"status"}, // status: completed|failed
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		AgentRuns,
		AgentDuration,
		SuggestionsProduced,
		RuleExecutions,
		ActionExecutions,
		QueueDepth,
		QueueProcessing,
		TaskRetries,
		TasksCompleted,
	)
}

// Serve starts the metrics HTTP endpoint. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
