package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MonitorTicks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_ticks_total", Help: "Completed real-time monitor ticks"},
	)
	SymbolFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "symbol_fetch_errors_total", Help: "Per-symbol data fetch failures during monitor ticks"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Strategy decisions produced"},
		[]string{"strategy", "direction"},
	)
	OrderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_attempts_total", Help: "Broker submission attempts"},
		[]string{"symbol"},
	)
	OrderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_outcomes_total", Help: "Terminal order outcomes"},
		[]string{"symbol", "result"},
	)
)

func init() {
	prometheus.MustRegister(MonitorTicks, SymbolFetchErrors, SignalsTotal, OrderAttempts, OrderOutcomes)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
