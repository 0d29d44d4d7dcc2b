// Package metrics exposes Prometheus counters for resilience runs. The
// counters are observability only; run outcomes never depend on them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OpsStarted counts operations handed to the request executor, by kind.
	OpsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiff_chaos_operations_started_total",
		Help: "Operations started, by kind (put/get).",
	}, []string{"op"})

	// OpsCompleted counts operations that resolved successfully, by kind.
	OpsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skiff_chaos_operations_completed_total",
		Help: "Operations completed successfully, by kind (put/get).",
	}, []string{"op"})

	// Retries counts attempts that were retried after a classifier decision.
	Retries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skiff_chaos_retries_total",
		Help: "Attempts retried after a retryable failure.",
	})

	// Redirects counts leader-redirect signals observed.
	Redirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skiff_chaos_redirects_total",
		Help: "Leader redirect signals received from the cluster.",
	})

	// SecondChances counts stale reads that were given one more attempt.
	SecondChances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skiff_chaos_read_second_chances_total",
		Help: "Reads retried once after observing a stale value.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
