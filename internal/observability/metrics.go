package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Cache hit rate = cacheHitsTotal / (cacheHitsTotal + cacheMissesTotal).
	// Watch for: hit rate collapse after deploys (TTL/capacity regressions).
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Cities currently cached per SDK instance is bounded by capacity;
	// this gauge is the sum across instances.
	CachedCitiesGauge prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Retry attempts for weather API. Watch for: high retries = unstable upstream.
	WeatherAPIRetriesTotal prometheus.Counter

	// Background polling sweeps. One sweep refreshes every cached city.
	PollingSweepsTotal          prometheus.Counter
	PollingSweepDurationSeconds prometheus.Histogram

	// Per-city refresh failures inside a sweep. Never surfaced to callers;
	// this counter is the only place they are visible besides logs.
	PollingRefreshErrorsTotal prometheus.Counter

	// HTTP request metrics for the weatherd facade.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Rate limit denials on the weatherd facade.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of weather cache hits",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of weather cache misses",
		},
	)
	CachedCitiesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cachedCities",
			Help: "Number of cities currently held in weather caches",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total number of retry attempts for weather API calls",
		},
	)
	PollingSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pollingSweepsTotal",
			Help: "Total number of background polling sweeps",
		},
	)
	PollingSweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pollingSweepDurationSeconds",
			Help:    "Duration of a full background polling sweep in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	PollingRefreshErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pollingRefreshErrorsTotal",
			Help: "Total number of per-city refresh failures during polling sweeps",
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests served by weatherd",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the weatherd rate limiter",
		},
	)

	registry.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		CachedCitiesGauge,
		WeatherAPICallsTotal,
		WeatherAPIDuration,
		WeatherAPIRetriesTotal,
		PollingSweepsTotal,
		PollingSweepDurationSeconds,
		PollingRefreshErrorsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns the HTTP handler serving this module's registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
