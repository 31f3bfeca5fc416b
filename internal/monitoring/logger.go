package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(v bool) { verbose.Store(v) }

// Verbose reports whether Debugf output is enabled.
func Verbose() bool { return verbose.Load() }

// Debugf logs through Logf only when verbose output is enabled. It is meant
// for per-notification detail that would flood the log at 4 Hz per sensor.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}
