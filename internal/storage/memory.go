package storage

import (
	"bytes"
	"context"
	"sync/atomic"

	"github.com/yndnr/drawdoc/pkg/cmap"
)

// MemoryEngine implements KVEngine on a sharded in-process map.
// Nothing survives the process; Sync is a no-op.
type MemoryEngine struct {
	items  *cmap.Map[[]byte]
	closed atomic.Bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{items: cmap.New[[]byte]()}
}

// Get retrieves a copy of the value.
func (e *MemoryEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	v, ok := e.items.Get(string(key))
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of the value.
func (e *MemoryEngine) Set(ctx context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.items.Set(string(key), bytes.Clone(value))
	return nil
}

// Delete removes a key.
func (e *MemoryEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.items.Delete(string(key))
	return nil
}

// Scan iterates over keys with a given prefix in key order.
func (e *MemoryEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	for _, k := range e.items.KeysWithPrefix(string(prefix)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, ok := e.items.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

// Sync is a no-op.
func (e *MemoryEngine) Sync(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Stats returns storage statistics.
func (e *MemoryEngine) Stats(ctx context.Context) (*KVStats, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	var size uint64
	e.items.Range(func(k string, v []byte) bool {
		size += uint64(len(k) + len(v))
		return true
	})
	return &KVStats{
		Engine:    EngineMemory,
		TotalKeys: uint64(e.items.Count()),
		TotalSize: size,
	}, nil
}

// Close drops all data.
func (e *MemoryEngine) Close() error {
	if !e.closed.Swap(true) {
		e.items.Clear()
	}
	return nil
}
