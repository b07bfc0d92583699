// Package metric provides Prometheus metrics for DrawDoc.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is the subset of key-value statistics the collector reports.
type StoreStats struct {
	Keys  uint64
	Bytes uint64
}

// StatsFunc reads current store statistics.
type StatsFunc func() (StoreStats, error)

// Collector reports key-value store statistics at scrape time.
type Collector struct {
	engine string
	stats  StatsFunc

	keysDesc  *prometheus.Desc
	bytesDesc *prometheus.Desc
}

// NewCollector creates a collector for the named storage engine.
func NewCollector(engine string, stats StatsFunc) *Collector {
	labels := prometheus.Labels{"engine": engine}
	return &Collector{
		engine: engine,
		stats:  stats,
		keysDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "keys"),
			"Approximate number of keys in the auto-save store",
			nil, labels,
		),
		bytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "size_bytes"),
			"Approximate size of the auto-save store in bytes",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keysDesc
	ch <- c.bytesDesc
}

// Collect implements prometheus.Collector.
// A failing stats read reports nothing rather than stale values.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s, err := c.stats()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.GaugeValue, float64(s.Bytes))
}
