// Package klog is a zero-allocation diagnostic logger for scheduler and
// clone transitions: direct string concatenation to stderr, no fmt, no
// interfaces, safe to call from latency-sensitive paths but intended for
// cold/occasional events (stability reports, clone start/end, a propagator
// failing) rather than per-propagator hot loops.
package klog

import "os"

// Sink receives log lines; nil disables logging entirely (the default for
// production spaces). Space holds a *Sink field so tests can install one
// without a package-global; the scheduler holds none.
type Sink struct {
	enabled bool
}

// NewSink returns an enabled sink that writes to stderr.
func NewSink() *Sink { return &Sink{enabled: true} }

// Drop writes "prefix: message\n" directly to stderr, bypassing fmt.
//
//go:nosplit
func (s *Sink) Drop(prefix, message string) {
	if s == nil || !s.enabled {
		return
	}
	msg := prefix + ": " + message + "\n"
	os.Stderr.WriteString(msg)
}

// DropErr writes "prefix: err\n", or just "prefix\n" when err is nil (the
// latter used for plain cold-path markers).
//
//go:nosplit
func (s *Sink) DropErr(prefix string, err error) {
	if s == nil || !s.enabled {
		return
	}
	if err != nil {
		os.Stderr.WriteString(prefix + ": " + err.Error() + "\n")
	} else {
		os.Stderr.WriteString(prefix + "\n")
	}
}
