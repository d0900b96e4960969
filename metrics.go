package queue

import (
	"errors"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Metric names registered by every queue.
const (
	MetricTasksSucceeded = "queue.tasks.succeeded"
	MetricTasksFailed    = "queue.tasks.failed"
	MetricTasksPanicked  = "queue.tasks.panicked"
	MetricRunsCompleted  = "queue.runs.completed"
	MetricRunsAborted    = "queue.runs.aborted"
	MetricRunsAllFailed  = "queue.runs.all_failed"
	MetricRunsCancelled  = "queue.runs.cancelled"
	MetricTaskDuration   = "queue.task.duration"
	MetricRunDuration    = "queue.run.duration"
)

type runMetrics struct {
	tasksSucceeded metrics.Counter
	tasksFailed    metrics.Counter
	tasksPanicked  metrics.Counter
	runsCompleted  metrics.Counter
	runsAborted    metrics.Counter
	runsAllFailed  metrics.Counter
	runsCancelled  metrics.Counter
	taskDuration   metrics.Timer
	runDuration    metrics.Timer
}

func newRunMetrics(r metrics.Registry) *runMetrics {
	return &runMetrics{
		tasksSucceeded: metrics.GetOrRegisterCounter(MetricTasksSucceeded, r),
		tasksFailed:    metrics.GetOrRegisterCounter(MetricTasksFailed, r),
		tasksPanicked:  metrics.GetOrRegisterCounter(MetricTasksPanicked, r),
		runsCompleted:  metrics.GetOrRegisterCounter(MetricRunsCompleted, r),
		runsAborted:    metrics.GetOrRegisterCounter(MetricRunsAborted, r),
		runsAllFailed:  metrics.GetOrRegisterCounter(MetricRunsAllFailed, r),
		runsCancelled:  metrics.GetOrRegisterCounter(MetricRunsCancelled, r),
		taskDuration:   metrics.GetOrRegisterTimer(MetricTaskDuration, r),
		runDuration:    metrics.GetOrRegisterTimer(MetricRunDuration, r),
	}
}

func (m *runMetrics) observeTask(d time.Duration, err error, panicked bool) {
	m.taskDuration.Update(d)
	switch {
	case err == nil:
		m.tasksSucceeded.Inc(1)
	case panicked:
		m.tasksPanicked.Inc(1)
		m.tasksFailed.Inc(1)
	default:
		m.tasksFailed.Inc(1)
	}
}

// observeRun counts a finished run by the shape of its outcome. Runs rejected
// before they began are not counted.
func (m *runMetrics) observeRun(started time.Time, state RunState, cancelled bool, err error) {
	m.runDuration.UpdateSince(started)

	var allFailed *AllFailedError
	switch {
	case state == RunAborted && cancelled:
		m.runsCancelled.Inc(1)
	case state == RunAborted:
		m.runsAborted.Inc(1)
	case errors.As(err, &allFailed):
		m.runsAllFailed.Inc(1)
	default:
		m.runsCompleted.Inc(1)
	}
}
