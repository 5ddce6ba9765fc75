// Package metrics is the backend-agnostic metrics facade used by the loader.
//
// Core code records through the package-level helpers; cmd/retailbench picks
// a concrete backend (pushgateway, datadog) with SetBackend. Until then every
// call goes to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Metric names. Backends translate them into their own naming scheme.
const (
	RowsTotal           = "retailbench_rows_total"            // counter, labels: dataset, table
	StepTotal           = "retailbench_step_total"            // counter, labels: step, status
	BatchesTotal        = "retailbench_batches_total"         // counter
	StepDurationSeconds = "retailbench_step_duration_seconds" // histogram, labels: step, status
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
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

// SetBackend installs b as the process-wide backend. nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush flushes the installed backend.
func Flush() error { return current().Flush() }

// RecordRows counts rows appended to table while loading dataset.
func RecordRows(dataset, table string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"dataset": dataset, "table": table})
}

// RecordBatch counts one batch handed to storage.
func RecordBatch() {
	current().IncCounter(BatchesTotal, 1, nil)
}

// RecordStep counts a finished step and records its duration.
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, l)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}
