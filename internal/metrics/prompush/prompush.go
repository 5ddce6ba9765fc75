// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package.
//
// A load is a batch job, so there is nothing for Prometheus to scrape once it
// exits. Observations go into a private registry and Flush pushes the whole
// registry to the gateway under the configured job name.
package prompush

import (
	"errors"
	"fmt"
	"strings"

	"retailbench/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Options controls the Pushgateway backend.
type Options struct {
	// URL of the Pushgateway, e.g. "http://localhost:9091". Required.
	URL string
	// JobName is the grouping job. Defaults to "retailbench".
	JobName string
	// Grouping adds extra grouping labels, e.g. {"run_id": "..."}.
	Grouping map[string]string
}

// Backend implements metrics.Backend on a Prometheus registry.
type Backend struct {
	reg    *prometheus.Registry
	pusher *push.Pusher

	rows     *prometheus.CounterVec
	steps    *prometheus.CounterVec
	batches  prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewBackend registers the loader's collectors on a fresh registry.
func NewBackend(opts Options) (*Backend, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("prompush: pushgateway url is required")
	}
	job := opts.JobName
	if job == "" {
		job = "retailbench"
	}

	b := &Backend{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows appended to canonical tables.",
		}, []string{"dataset", "table"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Finished loader steps by status.",
		}, []string{"step", "status"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Batches handed to storage.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Duration of loader steps in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		}, []string{"step", "status"}),
	}

	for _, c := range []prometheus.Collector{b.rows, b.steps, b.batches, b.duration} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}

	b.pusher = push.New(url, job).Gatherer(b.reg)
	for k, v := range opts.Grouping {
		b.pusher = b.pusher.Grouping(k, v)
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	switch name {
	case metrics.RowsTotal:
		b.rows.WithLabelValues(labels["dataset"], labels["table"]).Add(delta)
	case metrics.StepTotal:
		b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.BatchesTotal:
		b.batches.Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 || name != metrics.StepDurationSeconds {
		return
	}
	b.duration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry, replacing the previous push for the same group.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry for inspection.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

var _ metrics.Backend = (*Backend)(nil)
