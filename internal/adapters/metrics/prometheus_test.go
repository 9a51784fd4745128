package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIngestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewIngestObserver("test", reg)

	o.BatchInserted(500, 20*time.Millisecond)
	o.BatchInserted(200, 10*time.Millisecond)
	o.IngestFinished(700, nil)
	o.IngestFinished(0, errors.New("boom"))

	if got := testutil.ToFloat64(o.batches); got != 2 {
		t.Fatalf("expected 2 batches, got %v", got)
	}
	if got := testutil.ToFloat64(o.inserted); got != 700 {
		t.Fatalf("expected 700 documents, got %v", got)
	}
	if got := testutil.ToFloat64(o.runs.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(o.runs.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewIngestObserver("test", reg)
	o.BatchInserted(3, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_ingest_documents_total 3") {
		t.Fatalf("metrics output missing documents counter:\n%s", body)
	}
}
