// Package metric provides Prometheus metrics for DrawDoc.
//
// This package implements metrics collection:
//
//   - prometheus.go: Prometheus registry and the document-engine instruments
//   - collector.go: custom collector reporting key-value store statistics
//
// Metrics include:
//
//   - Archive pack/unpack counters and latency histograms
//   - History depth gauge
//   - Auto-save write and load outcome counters
//   - Storage statistics
//
// The CLI prints gathered families with the REPL "stats" command.
package metric
