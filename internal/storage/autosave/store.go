package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
	"github.com/yndnr/drawdoc/pkg/crypto/adaptive"
)

// Defaults.
const (
	DefaultKey    = "canvas.autoSave"
	DefaultMaxAge = 7 * 24 * time.Hour
)

// sealedPrefix marks an encrypted record.
var sealedPrefix = []byte("DDSEAL1:")

// Outcome is the coarse result of a store operation.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeMiss    Outcome = "miss"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Reason explains a miss or error.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonAbsent  Reason = "absent"
	ReasonCorrupt Reason = "corrupt"
	ReasonStale   Reason = "stale"
	ReasonIO      Reason = "io"
	ReasonStopped Reason = "stopped"
)

// Result reports the outcome of a store or scheduler operation.
type Result struct {
	Outcome Outcome
	Reason  Reason
	Err     error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

func (r Result) label() string {
	if r.Reason != ReasonNone {
		return string(r.Reason)
	}
	return string(r.Outcome)
}

func ok() Result { return Result{Outcome: OutcomeOK} }

func miss(reason Reason, err error) Result {
	return Result{Outcome: OutcomeMiss, Reason: reason, Err: err}
}

func ioFailure(err error) Result {
	return Result{Outcome: OutcomeError, Reason: ReasonIO, Err: domain.ErrStoreIO.WithCause(err)}
}

// Options configures a Store.
type Options struct {
	// Key is the record key. Default: canvas.autoSave
	Key string

	// MaxAge is how old a record may be before Load evicts it.
	// Default: 7 days
	MaxAge time.Duration

	// Cipher, when set, seals records at rest.
	Cipher adaptive.Cipher

	Logger  *slog.Logger
	Metrics *metric.Registry
}

// Store reads and writes the auto-save record.
type Store struct {
	engine  storage.KVEngine
	key     []byte
	maxAge  time.Duration
	cipher  adaptive.Cipher
	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// NewStore creates a store over engine.
func NewStore(engine storage.KVEngine, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		engine:  engine,
		key:     []byte(opts.Key),
		maxAge:  opts.MaxAge,
		cipher:  opts.Cipher,
		logger:  opts.Logger.With("component", "autosave"),
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Key returns the record key.
func (s *Store) Key() string { return string(s.key) }

// MaxAge returns the staleness limit.
func (s *Store) MaxAge() time.Duration { return s.maxAge }

// Save writes sceneJSON stamped with the current time and syncs.
func (s *Store) Save(ctx context.Context, sceneJSON string) Result {
	return s.SaveSnapshot(ctx, domain.NewSnapshot(sceneJSON, s.now()))
}

// SaveSnapshot writes snap as the record and syncs the engine.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot) Result {
	res := s.save(ctx, snap)
	s.metrics.AutoSaveWrite(res.label())
	return res
}

func (s *Store) save(ctx context.Context, snap domain.Snapshot) Result {
	data, err := json.Marshal(Record{
		State:     snap,
		Timestamp: s.now().UnixMilli(),
		Version:   RecordVersion,
	})
	if err != nil {
		return ioFailure(err)
	}
	if s.cipher != nil {
		sealed, err := s.cipher.Encrypt(data, s.key)
		if err != nil {
			return ioFailure(err)
		}
		data = append(append([]byte(nil), sealedPrefix...), sealed...)
	}

	if err := s.engine.Set(ctx, s.key, data); err != nil {
		return ioFailure(err)
	}
	if err := s.engine.Sync(ctx); err != nil {
		return ioFailure(err)
	}
	s.logger.Debug("auto-save written", "bytes", len(data))
	return ok()
}

// Load returns the saved snapshot. A record that is stale or cannot be
// decoded is deleted before Load returns; so is the key after a read
// failure. A nil snapshot always comes with a non-OK Result.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, Result) {
	snap, res := s.load(ctx)
	s.metrics.AutoSaveLoad(res.label())
	return snap, res
}

func (s *Store) load(ctx context.Context) (*domain.Snapshot, Result) {
	data, err := s.engine.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, miss(ReasonAbsent, nil)
	}
	if err != nil {
		s.evict(ctx)
		return nil, ioFailure(err)
	}

	if bytes.HasPrefix(data, sealedPrefix) {
		if s.cipher == nil {
			s.evict(ctx)
			return nil, miss(ReasonCorrupt, errors.New("record is encrypted and no key is configured"))
		}
		data, err = s.cipher.Decrypt(data[len(sealedPrefix):], s.key)
		if err != nil {
			s.evict(ctx)
			return nil, miss(ReasonCorrupt, err)
		}
	}

	snap, savedAt, err := decodeRecord(data)
	if err != nil {
		s.evict(ctx)
		return nil, miss(ReasonCorrupt, err)
	}

	if savedAt > 0 && s.now().Sub(time.UnixMilli(savedAt)) > s.maxAge {
		s.evict(ctx)
		return nil, miss(ReasonStale, nil)
	}
	return &snap, ok()
}

// Clear deletes the record unconditionally.
func (s *Store) Clear(ctx context.Context) Result {
	if err := s.engine.Delete(ctx, s.key); err != nil {
		return ioFailure(err)
	}
	if err := s.engine.Sync(ctx); err != nil {
		return ioFailure(err)
	}
	return ok()
}

// evict deletes the record after a failed load. Its own failure is only
// logged: the load result already tells the caller there is no data.
func (s *Store) evict(ctx context.Context) {
	if res := s.Clear(ctx); !res.OK() {
		s.logger.Warn("auto-save eviction failed", "error", res.Err)
	}
}
