// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_relay_requests_total",
			Help: "Total number of relay invocations by surface, status code and error kind",
		},
		[]string{"surface", "status", "kind"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_relay_request_duration_seconds",
			Help:    "Total time taken for relay invocations in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 25, 30},
		},
		[]string{"surface"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_relay_upstream_duration_seconds",
			Help:    "Time spent waiting on the upstream inference API in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 25, 30},
		},
		[]string{"outcome"},
	)

	InflightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inference_relay_inflight_requests",
			Help: "Current inflight relay invocations",
		},
	)
)
