// Package logging is a thin leveled wrapper over the standard logger.
// Components log with a short tag, e.g. logging.Infof("orchestrator", "...").
package logging

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	logger   = log.New(os.Stdout, "", log.LstdFlags)
	debug    atomic.Bool
	disabled atomic.Bool
)

// SetDebug toggles debug-level output at runtime.
func SetDebug(on bool) {
	debug.Store(on)
}

// Disable turns off all logging (used by tests and quiet CLI modes).
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on.
func Enable() {
	disabled.Store(false)
}

func logf(level, tag, format string, v ...any) {
	if disabled.Load() {
		return
	}
	logger.Printf(level+" ["+tag+"] "+format, v...)
}

// Infof logs an informational message for the given component tag.
func Infof(tag, format string, v ...any) {
	logf("INFO", tag, format, v...)
}

// Warnf logs a warning for the given component tag.
func Warnf(tag, format string, v ...any) {
	logf("WARN", tag, format, v...)
}

// Errorf logs an error for the given component tag.
func Errorf(tag, format string, v ...any) {
	logf("ERROR", tag, format, v...)
}

// Debugf logs a debug message; suppressed unless SetDebug(true) was called.
func Debugf(tag, format string, v ...any) {
	if !debug.Load() {
		return
	}
	logf("DEBUG", tag, format, v...)
}
