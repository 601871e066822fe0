// Package monitoring carries the process-wide diagnostic logging seam.
// Packages log through Logf with a bracketed component prefix, e.g.
// "[Detect] ..." or "[Store] ...", so one knob redirects or mutes the
// whole pipeline.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger. Tests or production code can redirect
// or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Component returns a Logf variant that prefixes every message with
// "[name] ", for packages that log from more than one site.
func Component(name string) func(format string, v ...interface{}) {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
