package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ulasan_collector_pages_fetched_total",
		Help: "Review pages fetched successfully.",
	})
	pageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ulasan_collector_page_errors_total",
		Help: "Review page fetches that failed.",
	})
	reviewsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ulasan_collector_reviews_fetched_total",
		Help: "Raw reviews received from the source.",
	})
)
