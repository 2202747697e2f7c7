// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "groupchat",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	SyncRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "groupchat",
		Name:      "sync_rows_total",
		Help:      "Rows returned by delta sync queries, by classified status.",
	}, []string{"status"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "groupchat",
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	})
)
