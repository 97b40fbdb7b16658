package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/roadwatch/roadwatch-web/internal/metrics"
) // .import

func setupMetrics(m ...prometheus.Collector) {
	metrics.RegisterMetrics(metrics.HttpReqs, metrics.OpenConnections, metrics.FeedConnected, metrics.FeedReconnects, metrics.PushEvents, metrics.BrowserSockets)
	metrics.RegisterMetrics(m...)
} // setupMetrics
