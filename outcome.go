package queue

// Success is a task that produced a value.
type Success[V any] struct {
	Key   string
	Value V
}

// Result is the aggregate of a run that did not end in error. Failures may be
// non-empty as long as at least one task succeeded.
type Result[V any] struct {
	Successes []Success[V]
	Failures  []Failure
}

// RunState is the lifecycle of a queue between resets.
type RunState int

const (
	RunIdle RunState = iota
	RunRunning
	RunCompleted
	RunAborted
)

func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// outcome is what the drive loop hands to resolve once it exits.
type outcome[V any] struct {
	state     RunState
	trigger   *Failure // set when aborted by a failing task
	cancelled error    // set when aborted by the run context
	successes []Success[V]
	failures  []Failure
}

// resolve turns the accumulators of a finished run into the caller-facing
// result or one of the run-level errors.
func resolve[V any](o outcome[V]) (*Result[V], error) {
	successes := copySlice(o.successes)
	failures := copySlice(o.failures)

	if o.state == RunAborted {
		if o.cancelled != nil {
			return nil, &CancelledError[V]{
				Cause:     o.cancelled,
				Failures:  failures,
				Successes: successes,
			}
		}
		return nil, &AbortError[V]{
			Key:       o.trigger.Key,
			Reason:    o.trigger.Reason,
			Failures:  failures,
			Successes: successes,
		}
	}

	if len(successes) == 0 && len(failures) > 0 {
		return nil, newAllFailedError(failures)
	}

	return &Result[V]{
		Successes: successes,
		Failures:  failures,
	}, nil
}

// copySlice never returns nil so empty results compare equal to empty literals.
func copySlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
