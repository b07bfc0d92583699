// Package metric provides Prometheus metrics for DrawDoc.
package metric

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every DrawDoc metric.
const Namespace = "drawdoc"

// Registry holds all application metrics.
//
// A nil *Registry is valid: every recording method is a no-op, so
// components can take an optional registry without branching.
type Registry struct {
	reg *prometheus.Registry

	// Archive metrics
	ArchiveOps      *prometheus.CounterVec
	ArchiveDuration *prometheus.HistogramVec
	ArchiveAssets   prometheus.Counter

	// History metrics
	HistoryDepth prometheus.Gauge

	// Auto-save metrics
	AutoSaveWrites *prometheus.CounterVec
	AutoSaveLoads  *prometheus.CounterVec
}

// NewRegistry creates a registry with all DrawDoc instruments registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ArchiveOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "archive",
			Name:      "operations_total",
			Help:      "Archive operations by kind and outcome",
		}, []string{"op", "outcome"}),
		ArchiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "archive",
			Name:      "duration_seconds",
			Help:      "Archive operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		ArchiveAssets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "archive",
			Name:      "assets_total",
			Help:      "Assets written into packed archives",
		}),
		HistoryDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "history",
			Name:      "depth",
			Help:      "Snapshots currently held by the undo history",
		}),
		AutoSaveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "autosave",
			Name:      "writes_total",
			Help:      "Auto-save writes by outcome",
		}, []string{"outcome"}),
		AutoSaveLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "autosave",
			Name:      "loads_total",
			Help:      "Auto-save loads by outcome",
		}, []string{"outcome"}),
	}

	r.reg.MustRegister(
		r.ArchiveOps,
		r.ArchiveDuration,
		r.ArchiveAssets,
		r.HistoryDepth,
		r.AutoSaveWrites,
		r.AutoSaveLoads,
		collectors.NewGoCollector(),
	)
	return r
}

// Prometheus returns the underlying registry for engines that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveArchive records one pack or unpack.
func (r *Registry) ObserveArchive(op, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ArchiveOps.WithLabelValues(op, outcome).Inc()
	r.ArchiveDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddArchiveAssets counts assets written by a pack.
func (r *Registry) AddArchiveAssets(n int) {
	if r == nil {
		return
	}
	r.ArchiveAssets.Add(float64(n))
}

// SetHistoryDepth reports the current history length.
func (r *Registry) SetHistoryDepth(n int) {
	if r == nil {
		return
	}
	r.HistoryDepth.Set(float64(n))
}

// AutoSaveWrite counts an auto-save write.
func (r *Registry) AutoSaveWrite(outcome string) {
	if r == nil {
		return
	}
	r.AutoSaveWrites.WithLabelValues(outcome).Inc()
}

// AutoSaveLoad counts an auto-save load.
func (r *Registry) AutoSaveLoad(outcome string) {
	if r == nil {
		return
	}
	r.AutoSaveLoads.WithLabelValues(outcome).Inc()
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers DrawDoc families and flattens them into samples sorted
// by name. Go runtime families are left out unless includeRuntime is set.
func (r *Registry) Snapshot(includeRuntime bool) ([]Sample, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.reg.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		name := mf.GetName()
		if !includeRuntime && !strings.HasPrefix(name, Namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   name,
				Labels: formatLabels(m.GetLabel()),
				Value:  sampleValue(mf.GetType(), m),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	case dto.MetricType_SUMMARY:
		return float64(m.GetSummary().GetSampleCount())
	default:
		return m.GetUntyped().GetValue()
	}
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}
