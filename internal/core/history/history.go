// Package history keeps a bounded undo/redo stack of scene snapshots.
//
// The stack holds full serialized scenes, never deltas. Saving after an
// undo discards the redo branch. Restoring a snapshot goes through the
// bound SceneProvider, and saves issued while that load is in flight are
// ignored so the load's own change events do not re-enter the history.
package history

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

// DefaultMaxSize is the default number of snapshots kept.
const DefaultMaxSize = 30

// SceneProvider is the live scene the history serializes and restores.
type SceneProvider interface {
	// Serialize returns the current scene as JSON.
	Serialize() (string, error)

	// Load replaces the scene and calls done when it has finished.
	// done may be called synchronously or from another goroutine; calls
	// after the first are ignored.
	Load(sceneJSON string, done func(error))
}

// State summarizes the stack for UI bindings.
type State struct {
	CanUndo bool
	CanRedo bool
	Len     int
	Index   int
}

// Notifier receives the stack state after every change.
type Notifier func(State)

// Stack is a bounded undo/redo history.
//
// Methods are safe for concurrent use, but callers should still feed
// edits from a single pipeline: two interleaved saves are ordered only
// by lock acquisition.
type Stack struct {
	mu sync.Mutex

	maxSize   int
	snapshots []domain.Snapshot
	index     int
	restoring bool

	provider SceneProvider
	notify   Notifier

	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// New creates an empty stack. metrics may be nil.
func New(maxSize int, logger *slog.Logger, metrics *metric.Registry) *Stack {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{
		maxSize: maxSize,
		index:   -1,
		logger:  logger.With("component", "history"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Init binds the scene provider and an optional notifier.
func (s *Stack) Init(provider SceneProvider, notify Notifier) {
	s.mu.Lock()
	s.provider = provider
	s.notify = notify
	st := s.stateLocked()
	s.mu.Unlock()

	s.emit(notify, st)
}

// Save pulls the current scene from the provider and pushes it.
func (s *Stack) Save() error {
	s.mu.Lock()
	provider := s.provider
	restoring := s.restoring
	s.mu.Unlock()

	if restoring {
		return nil
	}
	if provider == nil {
		return domain.ErrSceneUnavailable.WithDetails("no scene provider bound")
	}
	sceneJSON, err := provider.Serialize()
	if err != nil {
		return domain.ErrSceneUnavailable.WithCause(err)
	}
	s.SaveState(sceneJSON)
	return nil
}

// SaveState pushes an explicit serialization and reports whether the
// stack changed. A state identical to the one at the cursor is a no-op,
// as is any save while a restore is in flight.
func (s *Stack) SaveState(sceneJSON string) bool {
	s.mu.Lock()
	if s.restoring {
		s.mu.Unlock()
		return false
	}
	if s.index >= 0 && s.snapshots[s.index].JSON == sceneJSON {
		s.mu.Unlock()
		return false
	}

	// Drop the redo branch.
	s.snapshots = s.snapshots[:s.index+1]
	s.snapshots = append(s.snapshots, domain.NewSnapshot(sceneJSON, s.now()))
	if len(s.snapshots) > s.maxSize {
		s.snapshots = append(s.snapshots[:0:0], s.snapshots[len(s.snapshots)-s.maxSize:]...)
	}
	s.index = len(s.snapshots) - 1

	st, notify := s.stateLocked(), s.notify
	s.mu.Unlock()

	s.emit(notify, st)
	return true
}

// Undo moves the cursor back one snapshot and restores it.
// It reports false when there is nothing to undo or a restore is running.
func (s *Stack) Undo() bool {
	return s.step(-1)
}

// Redo moves the cursor forward one snapshot and restores it.
// It reports false when there is nothing to redo or a restore is running.
func (s *Stack) Redo() bool {
	return s.step(1)
}

func (s *Stack) step(delta int) bool {
	s.mu.Lock()
	target := s.index + delta
	if s.restoring || s.provider == nil || target < 0 || target >= len(s.snapshots) {
		s.mu.Unlock()
		return false
	}
	s.index = target
	snap := s.snapshots[target]
	s.mu.Unlock()

	s.load(snap.JSON, func(err error) {
		if err != nil {
			s.logger.Error("history step failed to load", "index", target, "error", err)
		}
	})
	return true
}

// RestoreFromState resets the history to the single given snapshot and
// loads it into the scene. onComplete, if non-nil, runs once the load
// finishes. Invalid JSON leaves the stack untouched.
func (s *Stack) RestoreFromState(snap domain.Snapshot, onComplete func(error)) error {
	if !json.Valid([]byte(snap.JSON)) {
		return domain.ErrHistoryRestore.WithDetails("snapshot is not valid JSON")
	}

	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		return domain.ErrSceneUnavailable.WithDetails("no scene provider bound")
	}
	if snap.Timestamp == 0 {
		snap.Timestamp = s.now().UnixMilli()
	}
	s.snapshots = []domain.Snapshot{snap}
	s.index = 0
	s.mu.Unlock()

	s.load(snap.JSON, func(err error) {
		if err != nil {
			s.logger.Error("history restore failed to load", "error", err)
			err = domain.ErrHistoryRestore.WithCause(err)
		}
		if onComplete != nil {
			onComplete(err)
		}
	})
	return nil
}

// load marks the stack as restoring and hands sceneJSON to the provider.
// The provider's completion is honored once.
func (s *Stack) load(sceneJSON string, after func(error)) {
	s.mu.Lock()
	s.restoring = true
	provider := s.provider
	s.mu.Unlock()

	var once sync.Once
	done := func(err error) {
		once.Do(func() {
			s.mu.Lock()
			s.restoring = false
			st, notify := s.stateLocked(), s.notify
			s.mu.Unlock()

			s.emit(notify, st)
			after(err)
		})
	}

	if provider == nil {
		done(domain.ErrSceneUnavailable)
		return
	}
	provider.Load(sceneJSON, done)
}

// Restoring reports whether a snapshot load is in flight.
func (s *Stack) Restoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoring
}

// CurrentState returns the snapshot at the cursor.
func (s *Stack) CurrentState() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return domain.Snapshot{}, false
	}
	return s.snapshots[s.index], true
}

// Clear drops every snapshot.
func (s *Stack) Clear() {
	s.mu.Lock()
	s.snapshots = nil
	s.index = -1
	st, notify := s.stateLocked(), s.notify
	s.mu.Unlock()

	s.emit(notify, st)
}

// CanUndo reports whether Undo would move.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// CanRedo reports whether Redo would move.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.snapshots)-1
}

// Len returns the number of snapshots held.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Index returns the cursor, or -1 when empty.
func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Snapshots returns a copy of the held snapshots, oldest first.
func (s *Stack) Snapshots() []domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Snapshot(nil), s.snapshots...)
}

// State returns the current summary.
func (s *Stack) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Destroy unbinds the provider and notifier and drops all snapshots.
func (s *Stack) Destroy() {
	s.mu.Lock()
	s.provider = nil
	s.notify = nil
	s.snapshots = nil
	s.index = -1
	s.restoring = false
	s.mu.Unlock()

	s.metrics.SetHistoryDepth(0)
}

func (s *Stack) stateLocked() State {
	return State{
		CanUndo: s.index > 0,
		CanRedo: s.index < len(s.snapshots)-1,
		Len:     len(s.snapshots),
		Index:   s.index,
	}
}

func (s *Stack) emit(notify Notifier, st State) {
	s.metrics.SetHistoryDepth(st.Len)
	if notify != nil {
		notify(st)
	}
}
