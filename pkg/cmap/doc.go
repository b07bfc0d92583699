// Package cmap provides a concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex. Reads (Get, Has, Range) take read
// locks, writes (Set, Delete, Clear) take write locks.
//
// Usage:
//
//	m := cmap.New[[]byte]()
//	m.Set("canvas.autoSave", record)
//	val, ok := m.Get("canvas.autoSave")
package cmap
