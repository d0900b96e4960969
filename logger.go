package queue

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is what the queue writes run and task events to. Both *logrus.Logger
// and *logrus.Entry satisfy it.
type Logger = logrus.FieldLogger

// NewDefaultLogger returns a text logger on stderr at the given level.
func NewDefaultLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
