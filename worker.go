package queue

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Start runs every task in the order it was added and blocks until the queue
// is exhausted or the run stops early.
//
// Exactly one task body is in flight at a time; a task is only invoked after
// the previous one's status and outcome are recorded. A failing task is
// recorded and, under policy.StopOnFirstError, ends the run with an
// *AbortError. A run that finishes with failures but no successes returns an
// *AllFailedError. Otherwise the result holds both lists, even when some tasks
// failed.
//
// Cancelling ctx stops the run before the next task is invoked and returns a
// *CancelledError. The running body receives ctx and may return early; its
// failure is recorded and, under either policy, the run still ends with a
// *CancelledError rather than an *AbortError.
//
// A queue runs once; Start on a queue that already ran returns
// ErrQueueConsumed until Reset is called.
func (q *Queue[V]) Start(ctx context.Context, policy Policy) (*Result[V], error) {
	return q.run(ctx, policy, uuid.New())
}

func (q *Queue[V]) run(ctx context.Context, policy Policy, runID uuid.UUID) (*Result[V], error) {
	total, err := q.begin()
	if err != nil {
		return nil, err
	}

	log := q.log.WithFields(logrus.Fields{
		"run_id":              runID.String(),
		"stop_on_first_error": policy.StopOnFirstError,
	})
	log.Debugf("Starting run over %d tasks", total)

	started := time.Now()
	ctx, span := startRunSpan(ctx, q.tracer, runID, policy, total)

	o := q.drive(ctx, log, policy)
	res, err := resolve(o)

	q.metrics.observeRun(started, o.state, o.cancelled != nil, err)
	endSpan(span, err)

	switch {
	case err != nil:
		log.Errorf("Run ended in state %s after %s: %v", o.state, time.Since(started), err)
	default:
		log.Infof("Run completed after %s: %d succeeded, %d failed",
			time.Since(started), len(res.Successes), len(res.Failures))
	}
	return res, err
}

// drive advances the cursor one task at a time until the list is exhausted or
// the run has to stop.
func (q *Queue[V]) drive(ctx context.Context, log Logger, policy Policy) outcome[V] {
	for {
		t, index, ok := q.next()
		if !ok {
			return q.finish(RunCompleted, nil, nil)
		}

		if err := ctx.Err(); err != nil {
			log.Warnf("Run cancelled before task %q at index %d", t.Key(), index)
			return q.finish(RunAborted, nil, err)
		}

		if err := q.execute(ctx, log, t, index, policy.StopOnFirstError); err != nil {
			// A body that failed because the run was cancelled ends the run as cancelled.
			if cerr := ctx.Err(); cerr != nil {
				log.Warnf("Run cancelled during task %q at index %d", t.Key(), index)
				return q.finish(RunAborted, nil, cerr)
			}
			return q.finish(RunAborted, &Failure{Key: t.Key(), Reason: err}, nil)
		}
	}
}

// execute runs a single task and records its outcome. It returns an error only
// when the run has to abort.
func (q *Queue[V]) execute(ctx context.Context, log Logger, t *Task[V], index int, stopOnError bool) error {
	tlog := log.WithFields(logrus.Fields{
		"task_key": t.Key(),
		"task_id":  t.ID().String(),
		"index":    index,
	})

	if err := q.markPending(t); err != nil {
		tlog.Errorf("Cannot start task: %v", err)
		return err
	}

	tctx, span := startTaskSpan(ctx, q.tracer, t.ID(), t.Key(), index)
	tlog.Debugf("Task started")

	value, panicked, reason := invoke(tctx, t.body)

	if err := q.record(t, value, reason, stopOnError); err != nil {
		endSpan(span, err)
		tlog.Errorf("Cannot record task outcome: %v", err)
		return err
	}
	q.metrics.observeTask(t.Duration(), reason, panicked)
	endSpan(span, reason)

	if reason == nil {
		tlog.Debugf("Task succeeded after %s", t.Duration())
		return nil
	}

	if panicked {
		tlog.Warnf("Task panicked: %v\n%s", reason, goerrors.Wrap(reason, 0).ErrorStack())
	} else {
		tlog.Warnf("Task failed: %v", reason)
	}
	if stopOnError {
		return reason
	}
	return nil
}

// invoke calls body and turns a panic into a failure carrying the stack of
// the panicking goroutine.
func invoke[V any](ctx context.Context, body TaskFunc[V]) (value V, panicked bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero V
			value = zero
			err = goerrors.Wrap(fmt.Errorf("%w: %v", ErrTaskPanicked, rec), 2)
			panicked = true
		}
	}()

	value, err = body(ctx)
	return value, false, err
}

// Run is a handle on a queue run started with StartAsync.
type Run[V any] struct {
	id     uuid.UUID
	group  errgroup.Group
	cancel context.CancelFunc
	done   chan struct{}

	result *Result[V]
	err    error
}

// StartAsync starts the run on its own goroutine and returns immediately.
func (q *Queue[V]) StartAsync(ctx context.Context, policy Policy) *Run[V] {
	ctx, cancel := context.WithCancel(ctx)

	r := &Run[V]{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.group.Go(func() error {
		defer close(r.done)
		defer cancel()

		r.result, r.err = q.run(ctx, policy, r.id)
		return r.err
	})
	return r
}

// ID identifies the run in logs and spans.
func (r *Run[V]) ID() uuid.UUID {
	return r.id
}

// Done is closed once the run has finished.
func (r *Run[V]) Done() <-chan struct{} {
	return r.done
}

// Cancel stops the run before its next task.
func (r *Run[V]) Cancel() {
	r.cancel()
}

// Wait blocks until the run finishes and returns what Start would have returned.
func (r *Run[V]) Wait() (*Result[V], error) {
	err := r.group.Wait()
	return r.result, err
}
