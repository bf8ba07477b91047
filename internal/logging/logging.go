// Package logging wraps the standard library logger the way the teacher's
// internal/util package did (Logln/Logf/Vlogf over os.Stderr), generalized
// with a repository/event-type context so internal/event can log a
// recovered listener failure without losing track of which repository and
// which event it came from.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Verbose gates Debugf output, mirroring the teacher's package-level
// Verbose switch.
var Verbose bool

var std = log.New(os.Stderr, "aetherresolve: ", log.LstdFlags)

// Logf logs at the default level unconditionally.
func Logf(format string, args ...interface{}) {
	std.Printf(format, args...)
}

// Debugf logs only when Verbose is set.
func Debugf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

// Warnf logs a condition the caller recovered from but that a human should
// still see.
func Warnf(format string, args ...interface{}) {
	Logf("warning: "+format, args...)
}

// WithContext prefixes format with a repository id and event-type label, so
// a listener failure recovered deep inside the event dispatcher still
// carries enough context to diagnose without a full stack trace.
func WithContext(repositoryID, eventType string) *ContextLogger {
	return &ContextLogger{prefix: fmt.Sprintf("[%s/%s] ", repositoryID, eventType)}
}

// ContextLogger is a Logf/Warnf pair bound to a fixed prefix.
type ContextLogger struct {
	prefix string
}

func (c *ContextLogger) Logf(format string, args ...interface{}) {
	Logf(c.prefix+format, args...)
}

func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	Warnf(c.prefix+format, args...)
}
