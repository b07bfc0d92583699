// Package metric provides Prometheus metrics for DrawDoc.
package metric

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.Prometheus() == nil {
		t.Error("Prometheus() returned nil")
	}
	if r.ArchiveOps == nil || r.HistoryDepth == nil || r.AutoSaveWrites == nil {
		t.Error("instruments not initialized")
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry

	// Should not panic
	r.ObserveArchive("pack", "ok", time.Millisecond)
	r.AddArchiveAssets(3)
	r.SetHistoryDepth(4)
	r.AutoSaveWrite("ok")
	r.AutoSaveLoad("absent")

	samples, err := r.Snapshot(false)
	if err != nil || samples != nil {
		t.Errorf("Snapshot() = %v, %v; want nil, nil", samples, err)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.ObserveArchive("pack", "ok", 5*time.Millisecond)
	r.ObserveArchive("pack", "ok", 5*time.Millisecond)
	r.SetHistoryDepth(7)
	r.AutoSaveLoad("stale")

	samples, err := r.Snapshot(false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	got := make(map[string]float64)
	for _, s := range samples {
		got[s.Name+"{"+s.Labels+"}"] = s.Value
	}

	tests := []struct {
		key  string
		want float64
	}{
		{"drawdoc_archive_operations_total{op=pack,outcome=ok}", 2},
		{"drawdoc_archive_duration_seconds{op=pack}", 2},
		{"drawdoc_history_depth{}", 7},
		{"drawdoc_autosave_loads_total{outcome=stale}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, ok := got[tt.key]
			if !ok {
				t.Fatalf("sample %s missing; have %v", tt.key, got)
			}
			if v != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, v, tt.want)
			}
		})
	}

	for _, s := range samples {
		if s.Name == "go_goroutines" {
			t.Error("runtime families should be excluded")
		}
	}
}

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.Prometheus().MustRegister(NewCollector("memory", func() (StoreStats, error) {
		return StoreStats{Keys: 2, Bytes: 128}, nil
	}))

	samples, err := r.Snapshot(false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	var keys, size float64
	for _, s := range samples {
		switch s.Name {
		case "drawdoc_store_keys":
			keys = s.Value
		case "drawdoc_store_size_bytes":
			size = s.Value
		}
	}
	if keys != 2 || size != 128 {
		t.Errorf("keys = %v, size = %v; want 2, 128", keys, size)
	}
}

func TestCollector_StatsError(t *testing.T) {
	c := NewCollector("memory", func() (StoreStats, error) {
		return StoreStats{}, errors.New("closed")
	})

	ch := make(chan prometheus.Metric, 4)
	c.Collect(ch)
	close(ch)
	if n := len(ch); n != 0 {
		t.Errorf("collected %d metrics on error, want 0", n)
	}
}
