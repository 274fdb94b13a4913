package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	recommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendations_total",
		Help: "Recommendation requests by outcome (ok, fallback, error).",
	}, []string{"outcome"})

	recommendationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_duration_ms",
		Help:    "End-to-end recommendation pipeline duration in milliseconds.",
		Buckets: []float64{5, 25, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})

	inferenceCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_cache_lookups_total",
		Help: "Inference response cache lookups by result (hit, miss).",
	}, []string{"result"})

	inferenceAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_attempts_total",
		Help: "HTTP attempts against the inference service by result.",
	}, []string{"result"})

	inferenceFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inference_fallbacks_total",
		Help: "Synthetic fallback replies served by the inference gateway.",
	})

	knowledgeReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "knowledge_reloads_total",
		Help: "Knowledge document (re)loads by result (ok, error).",
	}, []string{"result"})

	breakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inference_breaker_state",
		Help: "Inference circuit breaker state (0 closed, 1 half-open, 2 open).",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		recommendationsTotal,
		recommendationDuration,
		inferenceCacheTotal,
		inferenceAttemptsTotal,
		inferenceFallbacksTotal,
		knowledgeReloadsTotal,
		breakerState,
	)
}

// IncRecommendation counts a finished recommendation request.
func IncRecommendation(outcome string) {
	recommendationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecommendationDuration records a pipeline duration.
func ObserveRecommendationDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	recommendationDuration.Observe(float64(d) / float64(time.Millisecond))
}

// IncCacheLookup counts a response cache lookup.
func IncCacheLookup(hit bool) {
	if hit {
		inferenceCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	inferenceCacheTotal.WithLabelValues("miss").Inc()
}

// IncInferenceAttempt counts one HTTP attempt (ok, rate_limited, timeout, connection, status).
func IncInferenceAttempt(result string) {
	inferenceAttemptsTotal.WithLabelValues(result).Inc()
}

// IncFallback counts a synthetic fallback reply.
func IncFallback() {
	inferenceFallbacksTotal.Inc()
}

// IncKnowledgeReload counts a knowledge document load.
func IncKnowledgeReload(ok bool) {
	if ok {
		knowledgeReloadsTotal.WithLabelValues("ok").Inc()
		return
	}
	knowledgeReloadsTotal.WithLabelValues("error").Inc()
}

// SetBreakerState records the inference circuit breaker state.
func SetBreakerState(state string) {
	switch state {
	case "half-open":
		breakerState.Set(1)
	case "open":
		breakerState.Set(2)
	default:
		breakerState.Set(0)
	}
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
