package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromExporter serves a subset of the Array's counters on a
// promhttp.Handler endpoint, as an alternative sink to the plain-text
// report for operators who already scrape Prometheus. It generalises the
// teacher's pluggable MeasurementExporter interface (measurement.go) to an
// actively-scraped rather than write-once export.
type PromExporter struct {
	stats *Array

	txCount     prometheus.CounterFunc
	opsCount    prometheus.CounterFunc
	rowCount    prometheus.CounterFunc
	abortConflict prometheus.CounterFunc
	abortDeadlock prometheus.CounterFunc
}

// NewPromExporter builds and registers counter funcs backed directly
// by the live Array, and returns an http.Handler to mount at -metrics-addr.
func NewPromExporter(a *Array) (*PromExporter, http.Handler) {
	e := &PromExporter{stats: a}

	e.txCount = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sqldrive_tx_total",
		Help: "Total committed transactions.",
	}, func() float64 { return float64(a.Get(TxCount)) })
	e.opsCount = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sqldrive_ops_total",
		Help: "Total executed statements.",
	}, func() float64 { return float64(a.Get(OpsCount)) })
	e.rowCount = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sqldrive_rows_total",
		Help: "Total rows iterated across SELECT statements.",
	}, func() float64 { return float64(a.Get(RowCount)) })
	e.abortConflict = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sqldrive_abort_conflict_total",
		Help: "Transactions rolled back due to a generic conflict.",
	}, func() float64 { return float64(a.Get(AbortConflict)) })
	e.abortDeadlock = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "sqldrive_abort_deadlock_total",
		Help: "Transactions rolled back due to a detected deadlock.",
	}, func() float64 { return float64(a.Get(AbortDeadlock)) })

	reg := prometheus.NewRegistry()
	reg.MustRegister(e.txCount, e.opsCount, e.rowCount, e.abortConflict, e.abortDeadlock)

	return e, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the Prometheus handler at addr. It
// blocks until the listener fails or the process exits; callers run it in
// its own goroutine.
func Serve(addr string, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return http.ListenAndServe(addr, mux)
}
