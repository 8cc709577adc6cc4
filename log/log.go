package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for dunjams loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("DUNJAMS_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Debugging returns true if debug logging was requested with DUNJAMS_DEBUG.
func Debugging() bool {
	return debug
}

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// WithFields returns a logger which adds fields to every entry.
func WithFields(fields Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}
