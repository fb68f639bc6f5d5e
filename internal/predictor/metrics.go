package predictor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ulasan_predictions_total",
		Help: "Predictions served, by predicted sentiment.",
	}, []string{"sentiment"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ulasan_prediction_duration_seconds",
		Help:    "Time spent on one prediction including preprocessing.",
		Buckets: prometheus.DefBuckets,
	})

	inferenceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ulasan_inference_errors_total",
		Help: "Predictions that failed during encoding or the forward pass.",
	})
)
