package service

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/core/history"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
)

// Renderer rasterizes the live scene for archive thumbnails.
type Renderer interface {
	Render() (image.Image, error)
}

// Scene is the live scene the service coordinates.
type Scene interface {
	history.SceneProvider

	// Canvas returns the drawing surface geometry.
	Canvas() domain.CanvasMeta

	// OnChange registers the function called after every mutation.
	OnChange(fn func())
}

// Options configures a DocumentService.
type Options struct {
	Serializer *archive.Serializer
	History    *history.Stack

	// AutoSave is optional. Without it the service never writes or
	// recovers auto-save records.
	AutoSave  *autosave.Store
	Scheduler autosave.SchedulerConfig

	// Renderer produces thumbnails. Nil exports without a preview, or
	// fails the export when the serializer requires one.
	Renderer Renderer

	// RecoverOnOpen restores a saved auto-save record during Open.
	RecoverOnOpen bool

	Logger *slog.Logger
}

// DocumentService coordinates one open document.
type DocumentService struct {
	scene      Scene
	renderer   Renderer
	history    *history.Stack
	serializer *archive.Serializer
	store      *autosave.Store
	scheduler  *autosave.Scheduler
	recover    bool
	logger     *slog.Logger

	mu       sync.Mutex
	opened   bool
	closed   bool
	identity identity
}

// identity survives re-exports of the same document.
type identity struct {
	documentID string
	created    int64
	title      string
}

// NewDocumentService creates a service for scene.
func NewDocumentService(scene Scene, opts Options) *DocumentService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Serializer == nil {
		opts.Serializer = archive.NewSerializer(archive.DefaultConfig(), opts.Logger, nil)
	}
	if opts.History == nil {
		opts.History = history.New(history.DefaultMaxSize, opts.Logger, nil)
	}

	s := &DocumentService{
		scene:      scene,
		renderer:   opts.Renderer,
		history:    opts.History,
		serializer: opts.Serializer,
		store:      opts.AutoSave,
		recover:    opts.RecoverOnOpen,
		logger:     opts.Logger.With("component", "document"),
	}
	if s.store != nil {
		s.scheduler = autosave.NewScheduler(s.store, opts.Scheduler, opts.Logger)
	}
	return s
}

// ============================================================================
// Lifecycle
// ============================================================================

// Open binds the history to the scene, starts auto-save and, when enabled,
// recovers the saved record. Otherwise the current scene becomes the first
// history entry. It reports whether a record was recovered.
func (s *DocumentService) Open(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return false, nil
	}
	s.opened = true
	s.mu.Unlock()

	s.history.Init(s.scene, func(st history.State) {
		s.logger.Debug("history changed", "len", st.Len, "index", st.Index)
	})
	s.scene.OnChange(s.SceneChanged)
	if s.scheduler != nil {
		s.scheduler.Start()
	}

	if s.recover {
		recovered, err := s.RecoverAutoSave(ctx)
		if err != nil || recovered {
			return recovered, err
		}
	}

	if err := s.history.Save(); err != nil {
		return false, err
	}
	return false, nil
}

// Close stops auto-save after flushing the latest scene and releases the
// history. Flush failures are logged only.
func (s *DocumentService) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	opened := s.opened
	s.mu.Unlock()

	s.scene.OnChange(nil)
	if s.scheduler != nil {
		if sceneJSON, err := s.scene.Serialize(); err == nil && opened {
			s.scheduler.OnChange(sceneJSON)
		}
		if res := s.scheduler.Stop(ctx); res.Outcome == autosave.OutcomeError {
			s.logger.Warn("final auto-save failed", "reason", res.Reason, "error", res.Err)
		}
	}
	s.history.Destroy()
	return nil
}

// ============================================================================
// Editing
// ============================================================================

// SceneChanged records the current scene in the history and schedules an
// auto-save. Changes caused by undo, redo or restore reach auto-save but
// not the history.
func (s *DocumentService) SceneChanged() {
	if err := s.history.Save(); err != nil {
		s.logger.Warn("history save failed", "error", err)
	}
	if s.scheduler == nil {
		return
	}
	sceneJSON, err := s.scene.Serialize()
	if err != nil {
		s.logger.Warn("scene serialize failed; auto-save skipped", "error", err)
		return
	}
	s.scheduler.OnChange(sceneJSON)
}

// Undo steps the history back.
func (s *DocumentService) Undo() bool {
	return s.history.Undo()
}

// Redo steps the history forward.
func (s *DocumentService) Redo() bool {
	return s.history.Redo()
}

// History returns the undo/redo state.
func (s *DocumentService) History() history.State {
	return s.history.State()
}

// HistoryEntries returns the held snapshots, oldest first.
func (s *DocumentService) HistoryEntries() []domain.Snapshot {
	return s.history.Snapshots()
}

// ============================================================================
// Export / Import
// ============================================================================

// Export packs the current scene. The document keeps its id and creation
// time across exports; an empty title keeps the previous one.
func (s *DocumentService) Export(ctx context.Context, title string) (*archive.PackResult, error) {
	sceneJSON, err := s.scene.Serialize()
	if err != nil {
		return nil, domain.ErrSceneUnavailable.WithCause(err)
	}

	s.mu.Lock()
	id := s.identity
	s.mu.Unlock()
	if title == "" {
		title = id.title
	}

	req := archive.PackRequest{
		SceneJSON:  []byte(sceneJSON),
		Canvas:     s.scene.Canvas(),
		Title:      title,
		DocumentID: id.documentID,
		Created:    id.created,
	}
	if s.renderer != nil {
		req.Raster = s.renderer
	}

	res, err := s.serializer.Pack(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.identity = identity{
		documentID: res.Manifest.DocumentID,
		created:    res.Manifest.Created,
		title:      res.Manifest.Title,
	}
	s.mu.Unlock()
	return res, nil
}

// Import unpacks blob and replaces the scene and the history with it.
// A rejected archive leaves the document untouched and returns the
// reason's error.
func (s *DocumentService) Import(ctx context.Context, blob []byte) (*archive.UnpackResult, error) {
	res := s.serializer.Unpack(ctx, blob)
	if !res.Success {
		return res, res.Err
	}

	snap := domain.NewSnapshot(string(res.SceneJSON), time.Now())
	if err := s.restore(ctx, snap); err != nil {
		return res, err
	}

	s.mu.Lock()
	s.identity = identity{
		documentID: res.Manifest.DocumentID,
		created:    res.Manifest.Created,
		title:      res.Manifest.Title,
	}
	s.mu.Unlock()
	return res, nil
}

// ============================================================================
// Auto-save
// ============================================================================

// RecoverAutoSave restores the saved record into the scene and resets the
// history to it. A missing, stale or unreadable record is logged and
// reported as false with no error.
func (s *DocumentService) RecoverAutoSave(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	snap, res := s.store.Load(ctx)
	if !res.OK() {
		// A stale or corrupt record was evicted by Load.
		s.scheduler.Forget()
		s.logMiss(res)
		return false, nil
	}

	if err := s.restore(ctx, *snap); err != nil {
		return false, err
	}
	s.logger.Info("auto-save recovered", "saved_at", snap.Time())
	return true, nil
}

// DiscardAutoSave deletes the saved record.
func (s *DocumentService) DiscardAutoSave(ctx context.Context) autosave.Result {
	if s.store == nil {
		return autosave.Result{Outcome: autosave.OutcomeSkipped}
	}
	res := s.store.Clear(ctx)
	s.scheduler.Forget()
	if !res.OK() {
		s.logger.Warn("auto-save discard failed", "error", res.Err)
	}
	return res
}

// FlushAutoSave writes pending changes now.
func (s *DocumentService) FlushAutoSave(ctx context.Context) autosave.Result {
	if s.scheduler == nil {
		return autosave.Result{Outcome: autosave.OutcomeSkipped}
	}
	res := s.scheduler.FlushNow(ctx)
	if res.Outcome == autosave.OutcomeError {
		s.logger.Warn("auto-save flush failed", "reason", res.Reason, "error", res.Err)
	}
	return res
}

func (s *DocumentService) logMiss(res autosave.Result) {
	switch res.Reason {
	case autosave.ReasonAbsent:
		s.logger.Debug("no auto-save record")
	case autosave.ReasonStale:
		s.logger.Info("auto-save record expired and was discarded")
	default:
		s.logger.Warn("auto-save record unusable and was discarded", "reason", res.Reason, "error", res.Err)
	}
}

// restore resets the history to snap and waits for the scene to load it.
func (s *DocumentService) restore(ctx context.Context, snap domain.Snapshot) error {
	done := make(chan error, 1)
	if err := s.history.RestoreFromState(snap, func(err error) { done <- err }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return domain.ErrHistoryRestore.WithCause(ctx.Err())
	}
}
