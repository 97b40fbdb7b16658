package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var FeedConnected = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "roadwatch_web_feed_connected",
	Help: "1 while the backend push channel is connected, 0 otherwise.",
})

var FeedReconnects = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "roadwatch_web_feed_reconnects_total",
	Help: "Number of reconnect attempts against the backend push channel.",
})

var PushEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "roadwatch_web_push_events_total",
	Help: "Push events received on the backend channel, partitioned by outcome.",
}, []string{"outcome"})

var BrowserSockets = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "roadwatch_web_browser_sockets",
	Help: "Currently connected browser fan-out sockets.",
})

const (
	OutcomeMerged    = "merged"
	OutcomeIgnored   = "ignored"
	OutcomeMalformed = "malformed"
)
