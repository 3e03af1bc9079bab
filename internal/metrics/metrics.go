package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	Runs            prometheus.Counter
	FilteredOrders  prometheus.Counter
	Rows            prometheus.Gauge
	Unmapped        *prometheus.CounterVec
	LoadFailures    *prometheus.CounterVec
	GenerateLatency prometheus.Histogram

	// publication and intake
	PublishedRows prometheus.Counter
	Ingested      prometheus.Counter
	IngestSkipped prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "picklist_runs_total"})
	filtered := prometheus.NewCounter(prometheus.CounterOpts{Name: "picklist_filtered_orders_total"})
	rows := prometheus.NewGauge(prometheus.GaugeOpts{Name: "picklist_rows"})
	unmapped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "picklist_unmapped_products_total"}, []string{"product_id"})
	loadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "picklist_load_failures_total"}, []string{"source"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "picklist_generate_seconds",
		Buckets: prometheus.DefBuckets,
	})

	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "picklist_published_rows_total"})
	ingested := prometheus.NewCounter(prometheus.CounterOpts{Name: "picklist_ingested_orders_total"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "picklist_ingest_skipped_total"})

	r.MustRegister(runs, filtered, rows, unmapped, loadFailures, latency, published, ingested, skipped)
	return &Registry{
		reg:             r,
		Runs:            runs,
		FilteredOrders:  filtered,
		Rows:            rows,
		Unmapped:        unmapped,
		LoadFailures:    loadFailures,
		GenerateLatency: latency,
		PublishedRows:   published,
		Ingested:        ingested,
		IngestSkipped:   skipped,
	}
}

// UnmappedProduct counts a line item whose product has no recipe.
func (r *Registry) UnmappedProduct(productID string) {
	r.Unmapped.WithLabelValues(productID).Inc()
}

// LoadFailed counts a source that could not be loaded.
func (r *Registry) LoadFailed(source string) {
	r.LoadFailures.WithLabelValues(source).Inc()
}

// ObserveRun records one picking list generation.
func (r *Registry) ObserveRun(filteredOrders, rows int, seconds float64) {
	r.Runs.Inc()
	r.FilteredOrders.Add(float64(filteredOrders))
	r.Rows.Set(float64(rows))
	r.GenerateLatency.Observe(seconds)
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
