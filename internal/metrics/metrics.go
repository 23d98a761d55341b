package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Generations counts route generation outcomes
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_generations_total", Help: "Route generations by outcome."},
		[]string{"outcome"},
	)
	// VenuesPerRoute tracks how many stops generated routes carry
	VenuesPerRoute = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_venues_per_route", Help: "Stops per generated route.", Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15}},
	)
	// DirectionsFallbacks counts legs rendered as straight lines because
	// the directions provider could not answer
	DirectionsFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "route_directions_fallback_legs_total", Help: "Legs that fell back to straight-line geometry."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Generations)
		Registry.MustRegister(VenuesPerRoute)
		Registry.MustRegister(DirectionsFallbacks)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
