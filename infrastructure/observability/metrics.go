package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/engmung/portfolio-Nat/application/ports"
)

var _ ports.Metrics = (*Collector)(nil)

// Collector holds all Prometheus metrics for the application. It implements
// ports.Metrics by routing metric names to the vectors registered below;
// unknown names are dropped.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
	labels     map[string]int
}

// NewCollector creates a collector on its own registry, so tests can build as
// many as they like without duplicate registration
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		labels:     make(map[string]int),
	}

	c.HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	c.registry.MustRegister(c.HTTPRequests, c.HTTPDuration)

	// Bus metrics
	c.counter(namespace, "command_success", "Commands handled successfully", "command")
	c.counter(namespace, "command_errors", "Commands that returned an error", "command")
	c.histogram(namespace, "command_duration", "Command handling time in seconds", "command")
	c.counter(namespace, "query_count", "Queries dispatched", "query")
	c.counter(namespace, "query_success", "Queries answered successfully", "query")
	c.counter(namespace, "query_errors", "Queries that returned an error", "query")
	c.histogram(namespace, "query_duration", "Query handling time in seconds", "query")

	// Graph metrics
	c.counter(namespace, "graph_builds", "Knowledge graph snapshots published")
	c.counter(namespace, "graph_refresh_failures", "Refreshes that kept the last-good graph")
	c.counter(namespace, "graph_refresh_stale", "Refresh results discarded because a newer refresh was issued")
	c.histogram(namespace, "graph_refresh_duration", "Time to fetch and rebuild the graph in seconds")
	c.gauge(namespace, "graph_nodes", "Nodes in the published graph")
	c.gauge(namespace, "graph_links", "Links in the published graph")

	// Cache and sessions
	c.counter(namespace, "cache_hits", "Query cache hits")
	c.counter(namespace, "cache_misses", "Query cache misses")
	c.gauge(namespace, "ws_sessions", "Open WebSocket hover sessions")
	c.counter(namespace, "rate_limited", "Requests rejected by a rate limiter", "limiter")

	return c
}

func (c *Collector) counter(namespace, name, help string, labels ...string) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name + "_total", Help: help}, labels)
	c.registry.MustRegister(vec)
	c.counters[name] = vec
	c.labels[name] = len(labels)
}

func (c *Collector) histogram(namespace, name, help string, labels ...string) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name + "_seconds",
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	}, labels)
	c.registry.MustRegister(vec)
	c.histograms[name] = vec
	c.labels[name] = len(labels)
}

func (c *Collector) gauge(namespace, name, help string, labels ...string) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, labels)
	c.registry.MustRegister(vec)
	c.gauges[name] = vec
	c.labels[name] = len(labels)
}

// fit pads or truncates label values to the count the metric was registered with
func (c *Collector) fit(name string, values []string) []string {
	n := c.labels[name]
	out := make([]string, n)
	copy(out, values)
	for i := len(values); i < n; i++ {
		out[i] = "unknown"
	}
	return out
}

// Increment adds one to a counter
func (c *Collector) Increment(name string, labels ...string) {
	if vec, ok := c.counters[name]; ok {
		vec.WithLabelValues(c.fit(name, labels)...).Inc()
	}
}

// SetGauge sets a gauge metric to the specified value
func (c *Collector) SetGauge(name string, value float64, labels ...string) {
	if vec, ok := c.gauges[name]; ok {
		vec.WithLabelValues(c.fit(name, labels)...).Set(value)
	}
}

// StartTimer observes the elapsed time into a histogram when stopped
func (c *Collector) StartTimer(name string, labels ...string) ports.Timer {
	vec, ok := c.histograms[name]
	if !ok {
		return ports.NoopMetrics{}.StartTimer(name)
	}
	return &promTimer{observer: vec.WithLabelValues(c.fit(name, labels)...), start: time.Now()}
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

type promTimer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t *promTimer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// Fanout sends every measurement to each of its sinks
type Fanout []ports.Metrics

var _ ports.Metrics = Fanout(nil)

// Combine drops nil sinks and returns the rest as one ports.Metrics
func Combine(sinks ...ports.Metrics) ports.Metrics {
	var out Fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return ports.NoopMetrics{}
	case 1:
		return out[0]
	}
	return out
}

func (f Fanout) StartTimer(name string, labels ...string) ports.Timer {
	timers := make(multiTimer, len(f))
	for i, m := range f {
		timers[i] = m.StartTimer(name, labels...)
	}
	return timers
}

func (f Fanout) Increment(name string, labels ...string) {
	for _, m := range f {
		m.Increment(name, labels...)
	}
}

func (f Fanout) SetGauge(name string, value float64, labels ...string) {
	for _, m := range f {
		m.SetGauge(name, value, labels...)
	}
}

type multiTimer []ports.Timer

func (t multiTimer) Stop() {
	for _, timer := range t {
		timer.Stop()
	}
}
