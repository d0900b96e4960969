package queue

import (
	"github.com/rcrowley/go-metrics"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Queue.
type Option func(*settings)

type settings struct {
	log      Logger
	registry metrics.Registry
	tracer   trace.Tracer
}

// WithLogger sets the logger for run and task events. By default nothing is logged.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics registers the queue counters and timers in r instead of a
// private registry.
func WithMetrics(r metrics.Registry) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithTracerProvider creates the queue tracer from tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithTracer sets the tracer used for run and task spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		log:    newDiscardLogger(),
		tracer: defaultTracer(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
