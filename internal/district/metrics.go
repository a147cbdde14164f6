package district

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	resolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citzn_district_resolutions_total",
		Help: "District resolutions by source path",
	}, []string{"source"})
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citzn_district_cache_hits_total",
		Help: "Resolutions served from the cache",
	})
	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citzn_district_cache_misses_total",
		Help: "Resolutions that had to be derived",
	})
	geocodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citzn_district_geocode_failures_total",
		Help: "Geocoding collaborator failures swallowed into the heuristic path",
	})
	resolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "citzn_district_resolve_duration_ms",
		Help:    "End-to-end /districts resolve duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
)

func init() {
	prometheus.MustRegister(resolutionsTotal)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(geocodeFailuresTotal)
	prometheus.MustRegister(resolveDurationMs)
}

// MetricsHandler exposes the registered metrics; mounted at /metrics.
func MetricsHandler() http.Handler { return promhttp.Handler() }
