package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger defines the output interface used by ordtree components.
type Logger interface {
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Critical(...interface{})
	Criticalf(string, ...interface{})
}

// DefaultLogger is the default logger used by the commands, and wraps logrus.
type DefaultLogger struct {
	L *logrus.Logger
}

// NewLogger returns a configured default logger which writes to stderr.
func NewLogger() *DefaultLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return &DefaultLogger{L: l}
}

// SetOutput redirects all the levels to the writer.
func (d *DefaultLogger) SetOutput(w io.Writer) { d.L.SetOutput(w) }

// SetQuiet drops everything below the warning level.
func (d *DefaultLogger) SetQuiet(quiet bool) {
	if quiet {
		d.L.SetLevel(logrus.WarnLevel)
	} else {
		d.L.SetLevel(logrus.InfoLevel)
	}
}

// Info writes to info logger
func (d *DefaultLogger) Info(v ...interface{}) { d.L.Info(v...) }

// Infof writes to info logger
func (d *DefaultLogger) Infof(f string, v ...interface{}) { d.L.Infof(f, v...) }

// Warn writes to the warning logger
func (d *DefaultLogger) Warn(v ...interface{}) { d.L.Warn(v...) }

// Warnf writes to the warning logger
func (d *DefaultLogger) Warnf(f string, v ...interface{}) { d.L.Warnf(f, v...) }

// Error writes to the error logger
func (d *DefaultLogger) Error(v ...interface{}) { d.L.Error(v...) }

// Errorf writes to the error logger
func (d *DefaultLogger) Errorf(f string, v ...interface{}) { d.L.Errorf(f, v...) }

// Critical writes to the error logger with the stacktrace attached
func (d *DefaultLogger) Critical(v ...interface{}) {
	d.L.WithField("stack", captureStacktrace()).Error(v...)
}

// Criticalf writes a formatted message to the error logger with the stacktrace attached
func (d *DefaultLogger) Criticalf(f string, v ...interface{}) {
	d.L.WithField("stack", captureStacktrace()).Error(fmt.Sprintf(f, v...))
}

// captureStacktrace drops the frames of debug.Stack() and of this file.
func captureStacktrace() string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	// goroutine header + 2 lines per frame: debug.Stack, captureStacktrace, Critical(f)
	const skip = 1 + 2*3
	if len(lines) <= skip {
		return ""
	}
	return strings.Join(lines[skip:], "\n")
}
