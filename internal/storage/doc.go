// Package storage provides the embedded key-value engines behind
// auto-save.
//
// Every engine implements KVEngine:
//
//   - BadgerEngine: Badger v3 LSM store in a directory (default)
//   - SQLiteEngine: a single-table SQLite database in one file
//   - MemoryEngine: a sharded in-process map, for tests and --ephemeral runs
//
// Open picks the engine named by KVConfig.Engine. The auto-save store in
// the autosave subpackage is written against the interface only.
package storage
