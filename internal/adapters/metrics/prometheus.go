package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IngestObserver records bulk ingest progress as Prometheus metrics. All
// metrics are prefixed with "{namespace}_ingest_".
type IngestObserver struct {
	batches       prometheus.Counter
	inserted      prometheus.Counter
	batchDuration prometheus.Histogram
	runs          *prometheus.CounterVec
}

func NewIngestObserver(namespace string, registerer prometheus.Registerer) *IngestObserver {
	if namespace == "" {
		namespace = "movieapi"
	}

	o := &IngestObserver{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of batches inserted by bulk ingest",
		}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of documents inserted by bulk ingest",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a single batch insert in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of finished ingest runs by outcome",
		}, []string{"status"}),
	}

	if registerer != nil {
		registerer.MustRegister(o.batches, o.inserted, o.batchDuration, o.runs)
	}
	return o
}

func (o *IngestObserver) BatchInserted(size int, elapsed time.Duration) {
	o.batches.Inc()
	o.inserted.Add(float64(size))
	o.batchDuration.Observe(elapsed.Seconds())
}

func (o *IngestObserver) IngestFinished(_ int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.runs.WithLabelValues(status).Inc()
}

// Handler exposes the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
