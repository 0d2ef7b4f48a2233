// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the digest service.
//
// It exposes a narrow interface (Backend) focused on counters and timing
// data, with a global, pluggable backend that defaults to a no-op
// implementation, so metrics are always safe to call even when no real
// backend is configured. Concrete metric systems live in subpackages
// (currently a Prometheus Pushgateway backend) and the rest of the codebase
// depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style observation in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)        {}
func (nopBackend) ObserveDuration(name string, seconds float64, labels Labels) {}
func (nopBackend) Flush() error                                                { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// recordOp measures one operation: a count partitioned by outcome plus its
// duration.
func recordOp(op string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"op": op, "status": status}
	backend.IncCounter("digest_ops_total", 1, lbls)
	backend.ObserveDuration("digest_op_duration_seconds", d.Seconds(), lbls)
}

// RecordIngest records one ingest attempt and its duration.
func RecordIngest(err error, d time.Duration) { recordOp("ingest", err, d) }

// RecordFilter records one filter evaluation and its duration.
func RecordFilter(err error, d time.Duration) { recordOp("filter", err, d) }
