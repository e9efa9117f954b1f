// Package metrics records connector activity through a pluggable backend.
//
// Callers depend only on the functions here. The default backend discards
// everything, so instrumentation is always safe to call; cmd wiring installs
// a Prometheus Pushgateway or Datadog backend from configuration.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by all backends.
const (
	StepTotal    = "samfdw_step_total"
	StepDuration = "samfdw_step_duration_seconds"
	RowsTotal    = "samfdw_rows_total"
	BatchesTotal = "samfdw_batches_total"
	FetchBytes   = "samfdw_fetch_bytes"
)

// Row kinds passed to RecordRow.
const (
	KindEmitted  = "emitted"
	KindSkipped  = "skipped"
	KindInserted = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is implemented by concrete metric systems.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered data, for backends that need it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b and returns the previous backend. nil is ignored.
func SetBackend(b Backend) Backend {
	mu.Lock()
	defer mu.Unlock()
	prev := backend
	if b != nil {
		backend = b
	}
	return prev
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the installed backend.
func Flush() error { return current().Flush() }

// RecordStep counts one execution of step (fetch, scan, load, ...) and
// observes its latency.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of kind. Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches adds delta loader batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordFetch observes the size of a fetched extract body.
func RecordFetch(job string, n int64) {
	current().ObserveHistogram(FetchBytes, float64(n), Labels{"job": job})
}
