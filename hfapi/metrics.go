package hfapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var inferenceAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moxie_inference_api_requests",
	Help: "Number of inference API requests, by status code",
}, []string{"status"})

var inferenceAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "moxie_inference_api_duration_seconds",
	Help:    "Duration of inference API requests",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
})
