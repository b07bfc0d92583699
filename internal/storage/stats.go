package storage

import (
	"context"
	"time"

	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

const statsTimeout = 2 * time.Second

// newStatsCollector exposes an engine's Stats as prometheus gauges.
func newStatsCollector(e KVEngine) *metric.Collector {
	name := EngineMemory
	switch e.(type) {
	case *BadgerEngine:
		name = EngineBadger
	case *SQLiteEngine:
		name = EngineSQLite
	}

	return metric.NewCollector(name, func() (metric.StoreStats, error) {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()

		s, err := e.Stats(ctx)
		if err != nil {
			return metric.StoreStats{}, err
		}
		return metric.StoreStats{Keys: s.TotalKeys, Bytes: s.TotalSize}, nil
	})
}
