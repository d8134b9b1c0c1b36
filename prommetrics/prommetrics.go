// Package prommetrics exports annopack manager metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := prommetrics.New("annopack")
//	reg.MustRegister(c)
//	m, _ := annopack.New[Token](s, annopack.WithMetricsCollector(c))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/annopack"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Collector implements annopack.MetricsCollector and prometheus.Collector.
type Collector struct {
	registrations   *prometheus.CounterVec
	unregistrations *prometheus.CounterVec
	reclaimed       prometheus.Counter
	schemaChanges   *prometheus.HistogramVec
	handles         *prometheus.CounterVec
	slotSize        prometheus.Gauge
	chunks          prometheus.Counter
	chunkBytes      prometheus.Counter
}

var (
	_ annopack.MetricsCollector = (*Collector)(nil)
	_ prometheus.Collector      = (*Collector)(nil)
)

// New creates a Collector whose metric names start with namespace.
func New(namespace string) *Collector {
	return &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owner_registrations_total",
			Help:      "Owner registrations by mode and status",
		}, []string{"mode", "status"}),
		unregistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owner_unregistrations_total",
			Help:      "Explicit owner unregistrations by status",
		}, []string{"status"}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "owners_reclaimed_total",
			Help:      "Garbage-collected weak owners whose slots were recycled",
		}),
		schemaChanges: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "schema_change_duration_seconds",
			Help:      "Latency of handle registration and unregistration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		handles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handle_changes_total",
			Help:      "Handles added or removed by schema changes",
		}, []string{"op"}),
		slotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slot_size_bytes",
			Help:      "Current slot width in bytes",
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_allocated_total",
			Help:      "Allocator chunks mapped",
		}),
		chunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_allocated_total",
			Help:      "Bytes mapped for allocator chunks",
		}),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.registrations, c.unregistrations, c.reclaimed, c.schemaChanges,
		c.handles, c.slotSize, c.chunks, c.chunkBytes,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

// RecordRegister implements annopack.MetricsCollector.
func (c *Collector) RecordRegister(implicit bool, err error) {
	mode := "explicit"
	if implicit {
		mode = "implicit"
	}
	c.registrations.WithLabelValues(mode, status(err)).Inc()
}

// RecordUnregister implements annopack.MetricsCollector.
func (c *Collector) RecordUnregister(err error) {
	c.unregistrations.WithLabelValues(status(err)).Inc()
}

// RecordReclaim implements annopack.MetricsCollector.
func (c *Collector) RecordReclaim(count int) {
	c.reclaimed.Add(float64(count))
}

// RecordSchemaChange implements annopack.MetricsCollector.
func (c *Collector) RecordSchemaChange(added, removed, slotSize int, duration time.Duration, err error) {
	c.schemaChanges.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.handles.WithLabelValues("added").Add(float64(added))
	c.handles.WithLabelValues("removed").Add(float64(removed))
	c.slotSize.Set(float64(slotSize))
}

// RecordChunkAlloc implements annopack.MetricsCollector.
func (c *Collector) RecordChunkAlloc(_ int, bytes int64) {
	c.chunks.Inc()
	c.chunkBytes.Add(float64(bytes))
}
