package queue

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var ErrQueueRunning = errors.New("queue is running")
var ErrQueueConsumed = errors.New("queue already ran, reset it before starting again")
var ErrNilTask = errors.New("task body is nil")
var ErrTaskPanicked = errors.New("task panicked")
var ErrInvalidTransition = errors.New("invalid task status transition")

// Failure is a task that failed along with its reason.
type Failure struct {
	Key    string
	Reason error
}

func (f Failure) Error() string {
	return fmt.Sprintf("task %q: %v", f.Key, f.Reason)
}

func (f Failure) Unwrap() error {
	return f.Reason
}

// AbortError is returned when a run under the stop-on-first-error policy hits
// a failing task. It carries everything gathered up to the abort.
type AbortError[V any] struct {
	Key       string
	Reason    error
	Failures  []Failure
	Successes []Success[V]
}

func (e *AbortError[V]) Error() string {
	return fmt.Sprintf("queue stopped due to error in task %q: %v", e.Key, e.Reason)
}

func (e *AbortError[V]) Unwrap() error {
	return e.Reason
}

// AllFailedError is returned when a run finishes with no successes and at
// least one failure.
type AllFailedError struct {
	Failures []Failure

	errs *multierror.Error
}

func newAllFailedError(failures []Failure) *AllFailedError {
	var errs *multierror.Error
	for _, f := range failures {
		errs = multierror.Append(errs, f)
	}
	return &AllFailedError{Failures: failures, errs: errs}
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all tasks in the queue failed: %v", e.multiError())
}

func (e *AllFailedError) Unwrap() []error {
	return e.multiError().WrappedErrors()
}

// multiError covers values built as literals instead of by newAllFailedError.
func (e *AllFailedError) multiError() *multierror.Error {
	if e.errs != nil {
		return e.errs
	}
	if errs := newAllFailedError(e.Failures).errs; errs != nil {
		return errs
	}
	return &multierror.Error{}
}

// CancelledError is returned when the run context ends before the queue is
// exhausted. Tasks after the cursor are left untouched.
type CancelledError[V any] struct {
	Cause     error
	Failures  []Failure
	Successes []Success[V]
}

func (e *CancelledError[V]) Error() string {
	return fmt.Sprintf("queue run cancelled: %v", e.Cause)
}

func (e *CancelledError[V]) Unwrap() error {
	return e.Cause
}
