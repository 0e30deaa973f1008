// Package metrics holds the prometheus collectors of the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "starlight"

// Collector groups every metric the server exports.
// A nil *Collector is valid and records nothing, which keeps tests free of registries
type Collector struct {
	commands    *prometheus.CounterVec
	latency     prometheus.Histogram
	queueDepth  prometheus.Gauge
	timeouts    prometheus.Counter
	connections prometheus.Gauge
	swept       prometheus.Counter
}

// New creates the collectors and registers them with registry
func New(registry prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Processed commands by name and result",
		}, []string{"command", "result"}),

		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "request_duration_seconds",
			Help:      "Time from submission to completion of a request",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Requests waiting for the processing loop",
		}),

		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_timeouts_total",
			Help:      "Requests whose caller stopped waiting before completion",
		}),

		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections",
			Help:      "Open client connections",
		}),

		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "expired_keys_reclaimed_total",
			Help:      "Expired keys removed by periodic sweeps",
		}),
	}

	registry.MustRegister(
		c.commands,
		c.latency,
		c.queueDepth,
		c.timeouts,
		c.connections,
		c.swept,
	)

	return c
}

// CommandProcessed counts one command, ok tells whether it answered without ERROR
func (c *Collector) CommandProcessed(command string, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.commands.WithLabelValues(command, result).Inc()
}

// RequestCompleted records the time a request spent in the queue and the processor
func (c *Collector) RequestCompleted(d time.Duration) {
	if c == nil {
		return
	}
	c.latency.Observe(d.Seconds())
}

// QueueDepth reports the number of queued requests
func (c *Collector) QueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

// RequestTimedOut counts a request abandoned by its caller
func (c *Collector) RequestTimedOut() {
	if c == nil {
		return
	}
	c.timeouts.Inc()
}

// ConnectionOpened increments the open connections gauge
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
}

// ConnectionClosed decrements the open connections gauge
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connections.Dec()
}

// KeysSwept counts keys reclaimed by a periodic sweep
func (c *Collector) KeysSwept(n int) {
	if c == nil || n == 0 {
		return
	}
	c.swept.Add(float64(n))
}
