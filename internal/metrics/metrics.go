package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bakecost"

var (
	// pipelineDuration measures mutation pipelines end to end.
	// Labels: operation (add_ingredient, update_recipe, ...), status (ok, error)
	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "pipeline_duration_seconds",
		Help:      "Mutation pipeline latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation", "status"})

	// recipesRecomputed counts recipe totals persisted by propagation.
	recipesRecomputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "propagate",
		Name:      "recipes_recomputed_total",
		Help:      "Recipe totals recomputed after an ingredient change",
	})

	// staleCakes counts cakes left with a stale total because only one hop
	// is propagated.
	staleCakes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "propagate",
		Name:      "stale_cakes_total",
		Help:      "Cakes referencing a recomputed filling that were not recomputed",
	})

	// historyAppends counts history rows written.
	// Labels: entity (ingredient, recipe)
	historyAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "appends_total",
		Help:      "History snapshots appended",
	}, []string{"entity"})

	// historySkips counts ingredient updates below the change threshold.
	historySkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "ingredient_skips_total",
		Help:      "Ingredient updates that did not change price or measure",
	})

	// ownershipViolations counts history access refused for a foreign entity.
	ownershipViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "ownership_violations_total",
		Help:      "History reads or writes refused because the entity belongs to another account",
	}, []string{"entity"})

	// requestDuration measures HTTP handlers.
	// Labels: route, code, method
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code", "method"})
)

// InstrumentHandler records latency of next under the given route label.
func InstrumentHandler(route string, next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(
		requestDuration.MustCurryWith(prometheus.Labels{"route": route}),
		next,
	)
}

// ObservePipeline records the duration of a mutation pipeline.
func ObservePipeline(operation string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	pipelineDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

// RecipesRecomputed adds n propagated recipe totals.
func RecipesRecomputed(n int) {
	recipesRecomputed.Add(float64(n))
}

// StaleCakes adds n cakes left stale by one-hop propagation.
func StaleCakes(n int) {
	staleCakes.Add(float64(n))
}

// HistoryAppended counts one history row for entity.
func HistoryAppended(entity string) {
	historyAppends.WithLabelValues(entity).Inc()
}

// HistorySkipped counts an ingredient update that appended nothing.
func HistorySkipped() {
	historySkips.Inc()
}

// OwnershipViolation counts a refused history access for entity.
func OwnershipViolation(entity string) {
	ownershipViolations.WithLabelValues(entity).Inc()
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
