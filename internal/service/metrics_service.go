package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Plan outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomePartial      = "partial"
	OutcomeInvalid      = "invalid_input"
	OutcomeNoSections   = "no_sections"
	OutcomeUnresolvable = "unresolvable"
	OutcomeDeadline     = "deadline"
	OutcomeError        = "error"
)

// MetricsSnapshot is a JSON-friendly summary of process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	PlansGenerated           uint64    `json:"plansGenerated"`
	PlansFailed              uint64    `json:"plansFailed"`
	SuggestionFailures       uint64    `json:"suggestionFailures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and keeps counters for the summary endpoint.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Histogram
	cacheWrite         prometheus.Histogram
	cacheHitRatio      prometheus.Gauge
	cacheLookups       *prometheus.CounterVec
	catalogQuery       prometheus.Histogram
	planDuration       *prometheus.HistogramVec
	candidatesExplored prometheus.Histogram
	discardRatio       prometheus.Histogram
	suggestionCalls    *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	planCount            uint64
	planFailureCount     uint64
	suggestionFailCount  uint64
}

// NewMetricsService registers the planner collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_cache_latency_seconds",
		Help:    "Latency of catalog cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_cache_write_seconds",
		Help:    "Latency of catalog cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_cache_hit_ratio",
		Help: "Ratio of catalog cache hits to lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"})

	catalogQuery := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Duration of catalog database loads",
		Buckets: prometheus.DefBuckets,
	})

	planDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_generation_duration_seconds",
		Help:    "Schedule generation duration by outcome",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	candidatesExplored := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_candidates_explored",
		Help:    "Search node expansions per generation",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	})

	discardRatio := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_suggestion_discard_ratio",
		Help:    "Fraction of suggested section sets discarded per generation",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	suggestionCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_suggestion_calls_total",
		Help: "Calls to the suggestion service by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		catalogQuery, planDuration, candidatesExplored, discardRatio, suggestionCalls, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheLookups:       cacheLookups,
		catalogQuery:       catalogQuery,
		planDuration:       planDuration,
		candidatesExplored: candidatesExplored,
		discardRatio:       discardRatio,
		suggestionCalls:    suggestionCalls,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup records hits and misses of one batched lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheLookup(hits, misses int, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	m.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookups.WithLabelValues("miss").Add(float64(misses))
	h := atomic.AddUint64(&m.cacheHitCount, uint64(hits))
	ms := atomic.AddUint64(&m.cacheMissCount, uint64(misses))
	if total := h + ms; total > 0 {
		m.cacheHitRatio.Set(float64(h) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCatalogQuery tracks catalog database load time.
func (m *MetricsService) ObserveCatalogQuery(duration time.Duration) {
	if m == nil {
		return
	}
	m.catalogQuery.Observe(duration.Seconds())
}

// ObservePlan records one generation call.
func (m *MetricsService) ObservePlan(outcome string, duration time.Duration, explored int, discardRatio float64, hadSuggestions bool) {
	if m == nil {
		return
	}
	m.planDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	switch outcome {
	case OutcomeOK, OutcomePartial:
		atomic.AddUint64(&m.planCount, 1)
		m.candidatesExplored.Observe(float64(explored))
		if hadSuggestions {
			m.discardRatio.Observe(discardRatio)
		}
	default:
		atomic.AddUint64(&m.planFailureCount, 1)
	}
}

// RecordSuggestionCall counts suggestion service calls; failures degrade to exhaustive search.
func (m *MetricsService) RecordSuggestionCall(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.suggestionCalls.WithLabelValues("ok").Inc()
		return
	}
	m.suggestionCalls.WithLabelValues("error").Inc()
	atomic.AddUint64(&m.suggestionFailCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio,
		PlansGenerated:           atomic.LoadUint64(&m.planCount),
		PlansFailed:              atomic.LoadUint64(&m.planFailureCount),
		SuggestionFailures:       atomic.LoadUint64(&m.suggestionFailCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
