package queue

// Policy controls how a run reacts to a failing task.
type Policy struct {
	// StopOnFirstError ends the run at the first failing task. When false,
	// failures are recorded and the run moves on to the next task.
	StopOnFirstError bool
}

var (
	AbortOnFirstError = Policy{StopOnFirstError: true}
	CollectAll        = Policy{StopOnFirstError: false}
)

func (p Policy) String() string {
	if p.StopOnFirstError {
		return "abort-on-first-error"
	}
	return "collect-all"
}
