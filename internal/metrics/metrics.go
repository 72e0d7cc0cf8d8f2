// Package metrics defines the Prometheus collectors for the crawl engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crawlerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Total number of pages with a terminal outcome, labeled by domain and status.",
		},
		[]string{"domain", "status"},
	)

	crawlerBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_bytes_total",
			Help: "Total number of body bytes fetched, labeled by domain.",
		},
		[]string{"domain"},
	)

	crawlerFetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_fetch_retries_total",
			Help: "Total number of fetch retries after transient failures.",
		},
	)

	crawlerActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_active_workers",
			Help: "Number of workers currently processing a URL.",
		},
	)

	crawlerFrontierPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_frontier_pending",
			Help: "Number of URLs waiting in the frontier.",
		},
	)

	crawlerRateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_rate_limit_delay_seconds",
			Help:    "Histogram of rate limit wait durations, labeled by domain.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"domain"},
	)
)

// ObserveCrawl records the terminal outcome of a page.
func ObserveCrawl(domain, status string, bytesFetched int) {
	crawlerPagesTotal.WithLabelValues(domain, status).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.WithLabelValues(domain).Add(float64(bytesFetched))
	}
}

// IncFetchRetries records one retry of a transient fetch failure.
func IncFetchRetries() {
	crawlerFetchRetriesTotal.Inc()
}

// IncActiveWorkers increments the active worker count.
func IncActiveWorkers() {
	crawlerActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active worker count.
func DecActiveWorkers() {
	crawlerActiveWorkers.Dec()
}

// SetFrontierPending records the current frontier queue length.
func SetFrontierPending(n int) {
	crawlerFrontierPending.Set(float64(n))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	crawlerRateLimitDelaySeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
