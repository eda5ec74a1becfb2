// Package log creates logrus loggers configured from environment.
//
// TIMBRE_DEBUG=true switches loggers to debug level. TIMBRE_LOG_LEVEL
// accepts any logrus level name and takes precedence.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var level = logrus.InfoLevel

// Logger is a global interface for timbre loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func init() {
	if debug, err := strconv.ParseBool(os.Getenv("TIMBRE_DEBUG")); err == nil && debug {
		level = logrus.DebugLevel
	}
	if l, err := logrus.ParseLevel(os.Getenv("TIMBRE_LOG_LEVEL")); err == nil {
		level = l
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	return l
}

// Silent returns a logger which discards everything below panic level.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// With returns logger which adds the field to every message. Loggers
// without field support are returned as is.
func With(l Logger, key string, value interface{}) Logger {
	if fl, ok := l.(logrus.FieldLogger); ok {
		return fl.WithField(key, value)
	}
	return l
}
