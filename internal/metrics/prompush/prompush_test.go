package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"retailbench/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_RequiresURL(t *testing.T) {
	_, err := NewBackend(Options{URL: "  "})
	require.Error(t, err)
}

func TestBackend_RecordsIntoRegistry(t *testing.T) {
	b, err := NewBackend(Options{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"dataset": "esci", "table": "items"})
	b.IncCounter(metrics.RowsTotal, 2, metrics.Labels{"dataset": "esci", "table": "items"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.IncCounter(metrics.BatchesTotal, -1, nil)
	b.IncCounter("unknown_total", 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, metrics.Labels{"step": "load:esci", "status": "ok"})

	assert.Equal(t, 7.0, testutil.ToFloat64(b.rows.WithLabelValues("esci", "items")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.batches))
	assert.Equal(t, 1, testutil.CollectAndCount(b.duration))
}

func TestFlush_PushesToGateway(t *testing.T) {
	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend(Options{URL: srv.URL, Grouping: map[string]string{"run_id": "r1"}})
	require.NoError(t, err)

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load:wdc", "status": "ok"})
	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "PUT /metrics/job/retailbench/run_id/r1", paths[0])
	assert.True(t, strings.Contains(bodies[0], metrics.StepTotal), "pushed body should carry the step counter")
}

func TestFlush_SurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend(Options{URL: srv.URL, JobName: "bench"})
	require.NoError(t, err)
	b.IncCounter(metrics.BatchesTotal, 1, nil)

	err = b.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompush: push")
}
