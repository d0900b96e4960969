// Package queue runs named tasks one at a time, in the order they were added,
// and reports which of them succeeded and which failed.
package queue

import (
	"math"
	"sync"

	"github.com/rcrowley/go-metrics"
	"go.opentelemetry.io/otel/trace"
)

// Queue is an ordered list of tasks that runs them one at a time, in the
// order they were added.
//
// Add, Reset and Start must not be called concurrently from independent
// callers. The queue rejects Add and Reset while a run is in progress but
// does not serialize callers for you. Read-only accessors are safe to call
// at any time.
type Queue[V any] struct {
	mu sync.Mutex

	tasks  []*Task[V]
	cursor int
	state  RunState

	successes []Success[V]
	failures  []Failure

	log      Logger
	registry metrics.Registry
	metrics  *runMetrics
	tracer   trace.Tracer
}

func New[V any](opts ...Option) *Queue[V] {
	s := newSettings(opts)
	if s.registry == nil {
		s.registry = metrics.NewRegistry()
	}
	return &Queue[V]{
		tasks:     make([]*Task[V], 0),
		successes: make([]Success[V], 0),
		failures:  make([]Failure, 0),
		state:     RunIdle,
		log:       s.log,
		registry:  s.registry,
		metrics:   newRunMetrics(s.registry),
		tracer:    s.tracer,
	}
}

// Add appends a task. Keys do not need to be unique.
func (q *Queue[V]) Add(key string, body TaskFunc[V]) error {
	if body == nil {
		return ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case RunRunning:
		return ErrQueueRunning
	case RunCompleted, RunAborted:
		return ErrQueueConsumed
	}
	q.tasks = append(q.tasks, newTask(key, body))
	q.log.WithField("task_key", key).Debugf("Task added at index %d", len(q.tasks)-1)
	return nil
}

// Reset drops every task and accumulated outcome and returns the queue to idle.
func (q *Queue[V]) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == RunRunning {
		return ErrQueueRunning
	}
	q.tasks = make([]*Task[V], 0)
	q.cursor = 0
	q.successes = make([]Success[V], 0)
	q.failures = make([]Failure, 0)
	q.state = RunIdle
	q.log.Debugf("Queue reset")
	return nil
}

func (q *Queue[V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Cursor is the index of the next task to run. After an abort it points at
// the task that failed.
func (q *Queue[V]) Cursor() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

func (q *Queue[V]) State() RunState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Tasks returns a snapshot of every task in queue order.
func (q *Queue[V]) Tasks() []TaskSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]TaskSnapshot, 0, len(q.tasks))
	for i, t := range q.tasks {
		out = append(out, TaskSnapshot{
			Index:    i,
			ID:       t.ID(),
			Key:      t.Key(),
			Status:   t.Status(),
			Duration: t.Duration(),
		})
	}
	return out
}

// Successes returns the successes accumulated so far.
func (q *Queue[V]) Successes() []Success[V] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copySlice(q.successes)
}

// Failures returns the failures accumulated so far.
func (q *Queue[V]) Failures() []Failure {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copySlice(q.failures)
}

// Progress returns the percentage (0-100) of tasks that reached a terminal status.
func (q *Queue[V]) Progress() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return 0.0
	}
	done := len(q.successes) + len(q.failures)
	return math.Round(float64(done) / float64(len(q.tasks)) * 100)
}

// Metrics is the registry holding the queue counters and timers.
func (q *Queue[V]) Metrics() metrics.Registry {
	return q.registry
}

// begin moves an idle queue to running and reports how many tasks it holds.
func (q *Queue[V]) begin() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case RunRunning:
		return 0, ErrQueueRunning
	case RunCompleted, RunAborted:
		return 0, ErrQueueConsumed
	}
	q.state = RunRunning
	return len(q.tasks), nil
}

// next returns the task under the cursor, or false once the list is exhausted.
func (q *Queue[V]) next() (*Task[V], int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor >= len(q.tasks) {
		return nil, q.cursor, false
	}
	return q.tasks[q.cursor], q.cursor, true
}

func (q *Queue[V]) markPending(t *Task[V]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return t.transition(StatusPending)
}

// record stores the terminal status and outcome of t. The cursor moves on
// unless the failure is going to abort the run.
func (q *Queue[V]) record(t *Task[V], value V, reason error, abort bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if reason != nil {
		if err := t.transition(StatusFailed); err != nil {
			return err
		}
		q.failures = append(q.failures, Failure{Key: t.Key(), Reason: reason})
		if abort {
			return nil
		}
	} else {
		if err := t.transition(StatusSucceeded); err != nil {
			return err
		}
		q.successes = append(q.successes, Success[V]{Key: t.Key(), Value: value})
	}
	q.cursor++
	return nil
}

// finish ends the run in state and captures the accumulators for resolution.
func (q *Queue[V]) finish(state RunState, trigger *Failure, cancelled error) outcome[V] {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.state = state
	return outcome[V]{
		state:     state,
		trigger:   trigger,
		cancelled: cancelled,
		successes: copySlice(q.successes),
		failures:  copySlice(q.failures),
	}
}
