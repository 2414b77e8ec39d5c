// Package metrics exposes Prometheus instrumentation for the pipeline and
// the video job poller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "workflow",
		Name:      "runs_started_total",
		Help:      "Number of content runs started.",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "workflow",
		Name:      "runs_completed_total",
		Help:      "Number of content runs that finished every step.",
	})

	RunsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "workflow",
		Name:      "runs_failed_total",
		Help:      "Number of content runs aborted by a step failure.",
	})

	StepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "workflow",
		Name:      "step_failures_total",
		Help:      "Step failures by step identifier.",
	}, []string{"step"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "Completion requests by generation operation.",
	}, []string{"operation"})

	VideoJobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "video",
		Name:      "jobs_started_total",
		Help:      "Number of video generation jobs submitted.",
	})

	VideoJobsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "video",
		Name:      "jobs_succeeded_total",
		Help:      "Number of video generation jobs that produced an artifact.",
	})

	VideoJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "video",
		Name:      "jobs_failed_total",
		Help:      "Number of video generation jobs that ended in a terminal failure.",
	})

	VideoPollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipforge",
		Subsystem: "video",
		Name:      "poll_ticks_total",
		Help:      "Number of poll attempts against the video backend.",
	})
)
