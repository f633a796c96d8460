// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface the services and HTTP middleware use.
type Recorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
	RecordObservation(kind string)
	RecordStaleWrite(kind string)
	RecordPlaceSearch(returned, excluded int, d time.Duration)
	RecordPlaceSearchFailure()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests          *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	observations      *prometheus.CounterVec
	staleWrites       *prometheus.CounterVec
	placeSearches     prometheus.Counter
	placeFailures     prometheus.Counter
	placesReturned    prometheus.Histogram
	candidatesDropped prometheus.Counter
	searchLatency     prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplan_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dietplan_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplan_observations_appended_total",
			Help: "History observations appended, by series.",
		}, []string{"series"}),
		staleWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplan_series_stale_writes_total",
			Help: "Series write-backs rejected because the stored series had changed.",
		}, []string{"series"}),
		placeSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dietplan_place_searches_total",
			Help: "Nearby place searches served.",
		}),
		placeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dietplan_place_search_failures_total",
			Help: "Nearby place searches that failed at the provider.",
		}),
		placesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dietplan_places_returned",
			Help:    "Ranked places returned per search.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		candidatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dietplan_place_candidates_excluded_total",
			Help: "Provider candidates excluded for malformed coordinates.",
		}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dietplan_place_search_duration_seconds",
			Help:    "Provider search plus ranking latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.observations,
		c.staleWrites,
		c.placeSearches,
		c.placeFailures,
		c.placesReturned,
		c.candidatesDropped,
		c.searchLatency,
	)
	return c
}

// RecordRequest counts a served HTTP request and observes its latency.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordObservation counts an appended observation.
func (c *Collector) RecordObservation(kind string) {
	c.observations.WithLabelValues(kind).Inc()
}

// RecordStaleWrite counts a rejected write-back.
func (c *Collector) RecordStaleWrite(kind string) {
	c.staleWrites.WithLabelValues(kind).Inc()
}

// RecordPlaceSearch records a successful search.
func (c *Collector) RecordPlaceSearch(returned, excluded int, d time.Duration) {
	c.placeSearches.Inc()
	c.placesReturned.Observe(float64(returned))
	c.candidatesDropped.Add(float64(excluded))
	c.searchLatency.Observe(d.Seconds())
}

// RecordPlaceSearchFailure counts a provider failure.
func (c *Collector) RecordPlaceSearchFailure() {
	c.placeFailures.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where metrics are not wired, such as tests.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordObservation(string)                          {}
func (Nop) RecordStaleWrite(string)                           {}
func (Nop) RecordPlaceSearch(int, int, time.Duration)         {}
func (Nop) RecordPlaceSearchFailure()                         {}
