// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is an alias for structured log fields.
type Fields = logrus.Fields

var globalLogger = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel sets the global log level from a string (trace, debug, info, warn, error).
// Unknown values fall back to info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	globalLogger.SetLevel(parsed)
}

// GlobalLogger returns the process-wide logger instance.
func GlobalLogger() *logrus.Logger {
	return globalLogger
}

// SetGlobalLogger replaces the process-wide logger instance.
func SetGlobalLogger(l *logrus.Logger) {
	globalLogger = l
}

func WithFields(fields Fields) *logrus.Entry {
	return globalLogger.WithFields(fields)
}

func Debug(args ...interface{}) {
	globalLogger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	globalLogger.Debugf(template, args...)
}

func Info(args ...interface{}) {
	globalLogger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	globalLogger.Infof(template, args...)
}

func Warn(args ...interface{}) {
	globalLogger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	globalLogger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	globalLogger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	globalLogger.Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	globalLogger.Fatalf(template, args...)
}
