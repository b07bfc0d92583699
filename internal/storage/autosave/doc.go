// Package autosave keeps the single crash-recovery record of the open
// scene in a key-value engine.
//
// Store reads and writes the record and evicts it when it is stale or
// cannot be decoded. Every operation returns a Result instead of logging
// on the caller's behalf; the caller decides what a miss means.
//
// Scheduler decides when to write: it debounces edits, writes on a fixed
// interval while there are unsaved changes, throttles bursts and flushes
// on demand and on Stop. One goroutine owns all of its state.
package autosave
