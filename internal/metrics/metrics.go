// Package metrics exposes Prometheus counters for cycle outcomes and applied
// actions, plus an optional /metrics listener.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fogtime",
		Name:      "cycles_total",
		Help:      "Number of completed sync cycles by result",
	}, []string{"result"})

	cycleDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "fogtime",
		Name:      "cycle_duration_seconds",
		Help:      "Time spent per sync cycle",
	})

	actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fogtime",
		Name:      "actions_total",
		Help:      "Number of applied calendar actions by phase and kind",
	}, []string{"phase", "kind"})
)

func init() {
	prometheus.MustRegister(cyclesTotal, cycleDuration, actionsTotal)
}

// CycleFinished records one cycle outcome ("ok" or "error") and its duration.
func CycleFinished(result string, elapsed time.Duration) {
	cyclesTotal.WithLabelValues(result).Inc()
	cycleDuration.Observe(elapsed.Seconds())
}

// ActionApplied records one applied action. phase is "forward" or "reverse";
// kind is "create", "update" or "delete".
func ActionApplied(phase, kind string) {
	actionsTotal.WithLabelValues(phase, kind).Inc()
}

// Serve exposes /metrics and /healthz on addr. It blocks like
// http.ListenAndServe and is meant to run in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
