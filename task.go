package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskFunc is the body of a task. It either produces a value or fails with a reason.
type TaskFunc[V any] func(ctx context.Context) (V, error)

// Status is the execution state of a single task.
type Status int

const (
	StatusNotStarted Status = iota // added, not yet picked up by a run
	StatusPending                  // body invoked, waiting for completion
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Only NotStarted -> Pending -> {Succeeded, Failed} is valid.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusPending
	case StatusPending:
		return next == StatusSucceeded || next == StatusFailed
	default:
		return false
	}
}

// Task is one record of the queue: the caller's key and body plus the
// execution status owned by the queue.
type Task[V any] struct {
	id     uuid.UUID
	key    string
	body   TaskFunc[V]
	status Status

	startedAt  time.Time
	finishedAt time.Time
}

func newTask[V any](key string, body TaskFunc[V]) *Task[V] {
	return &Task[V]{
		id:     uuid.New(),
		key:    key,
		body:   body,
		status: StatusNotStarted,
	}
}

// ID is generated when the task is added; keys are not required to be unique.
func (t *Task[V]) ID() uuid.UUID {
	return t.id
}

func (t *Task[V]) Key() string {
	return t.key
}

func (t *Task[V]) Status() Status {
	return t.status
}

// Duration returns how long the body ran, or zero if it has not finished.
func (t *Task[V]) Duration() time.Duration {
	if t.finishedAt.IsZero() {
		return 0
	}
	return t.finishedAt.Sub(t.startedAt)
}

func (t *Task[V]) transition(next Status) error {
	if !t.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: task %q %s -> %s", ErrInvalidTransition, t.key, t.status, next)
	}
	switch next {
	case StatusPending:
		t.startedAt = time.Now()
	case StatusSucceeded, StatusFailed:
		t.finishedAt = time.Now()
	}
	t.status = next
	return nil
}

// TaskSnapshot is a read-only copy of a task record.
type TaskSnapshot struct {
	Index    int
	ID       uuid.UUID
	Key      string
	Status   Status
	Duration time.Duration
}
