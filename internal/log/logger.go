package log

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger writes categorised log lines through logrus.
// A nil *Logger discards everything.
type Logger struct {
	Log *logrus.Logger
	mu  sync.Mutex
}

// New wraps an existing logrus logger.
func New(l *logrus.Logger) *Logger {
	return &Logger{Log: l}
}

// NewDefault creates a logger writing text lines to stderr at the given level.
func NewDefault(level string) (*Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger := New(l)
	if level == "" {
		return logger, nil
	}
	if err := logger.SetLevel(level); err != nil {
		return nil, err
	}
	return logger, nil
}

// NewNullLogger creates a logger where log lines are discarded.
func NewNullLogger() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(l)
}

func (l *Logger) Tracef(category string, msg string, args ...any) {
	l.Logf(logrus.TraceLevel, category, msg, args...)
}

func (l *Logger) Debugf(category string, msg string, args ...any) {
	l.Logf(logrus.DebugLevel, category, msg, args...)
}

func (l *Logger) Infof(category string, msg string, args ...any) {
	l.Logf(logrus.InfoLevel, category, msg, args...)
}

func (l *Logger) Warnf(category string, msg string, args ...any) {
	l.Logf(logrus.WarnLevel, category, msg, args...)
}

func (l *Logger) Errorf(category string, msg string, args ...any) {
	l.Logf(logrus.ErrorLevel, category, msg, args...)
}

// Logf logs msg at level under category, skipping the formatting work when
// the level is disabled.
func (l *Logger) Logf(level logrus.Level, category string, msg string, args ...any) {
	if l == nil || l.Log == nil {
		return
	}
	if !l.Log.IsLevelEnabled(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Log.WithField("category", category).Logf(level, msg, args...)
}

// WithError returns an entry carrying err for callers that need logrus fields.
func (l *Logger) WithError(category string, err error) *logrus.Entry {
	if l == nil || l.Log == nil {
		return logrus.NewEntry(discard)
	}
	return l.Log.WithFields(logrus.Fields{"category": category, logrus.ErrorKey: err})
}

// SetLevel sets the logger level from a level string.
// Accepted values: trace, debug, info, warning, error, fatal, panic.
func (l *Logger) SetLevel(level string) error {
	pl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Log.SetLevel(pl)
	return nil
}

// DebugMode returns true if the logger level is set to Debug or higher.
func (l *Logger) DebugMode() bool {
	if l == nil || l.Log == nil {
		return false
	}
	return l.Log.IsLevelEnabled(logrus.DebugLevel)
}

// TraceMode returns true if the logger level is set to Trace.
func (l *Logger) TraceMode() bool {
	if l == nil || l.Log == nil {
		return false
	}
	return l.Log.IsLevelEnabled(logrus.TraceLevel)
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()
