// Package logger adapts rs/zerolog to the core Logger interface.
package logger

import corelogger "github.com/kilianp07/compstation/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component using the process-wide
// settings from Configure. The format defaults from the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
