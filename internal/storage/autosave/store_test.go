package autosave

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

const sceneA = `{"kind":"group","children":[{"kind":"rect","w":10}]}`

func newTestStore(t *testing.T, engine storage.KVEngine, opts Options) (*Store, *time.Time) {
	t.Helper()
	opts.Logger = logger.Discard()
	s := NewStore(engine, opts)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t, storage.NewMemoryEngine(), Options{})

	if res := s.Save(ctx, sceneA); !res.OK() {
		t.Fatalf("Save() = %+v", res)
	}

	snap, res := s.Load(ctx)
	if !res.OK() {
		t.Fatalf("Load() = %+v", res)
	}
	if snap.JSON != sceneA {
		t.Errorf("JSON = %q, want %q", snap.JSON, sceneA)
	}
	if snap.Timestamp != now.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", snap.Timestamp, now.UnixMilli())
	}
}

func TestStore_LoadAbsent(t *testing.T) {
	s, _ := newTestStore(t, storage.NewMemoryEngine(), Options{})

	snap, res := s.Load(context.Background())
	if snap != nil {
		t.Errorf("Load() snapshot = %+v, want nil", snap)
	}
	if res.Outcome != OutcomeMiss || res.Reason != ReasonAbsent {
		t.Errorf("Load() = %+v, want miss/absent", res)
	}
}

func TestStore_StaleRecordIsEvicted(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()
	s, now := newTestStore(t, engine, Options{MaxAge: time.Hour})

	if res := s.Save(ctx, sceneA); !res.OK() {
		t.Fatalf("Save() = %+v", res)
	}
	*now = now.Add(2 * time.Hour)

	if _, res := s.Load(ctx); res.Reason != ReasonStale {
		t.Fatalf("Load() = %+v, want stale", res)
	}
	if _, err := engine.Get(ctx, []byte(DefaultKey)); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("stale record still stored, Get() error = %v", err)
	}
	if _, res := s.Load(ctx); res.Reason != ReasonAbsent {
		t.Errorf("second Load() = %+v, want absent", res)
	}
}

func TestStore_RecordAtMaxAgeIsKept(t *testing.T) {
	ctx := context.Background()
	s, now := newTestStore(t, storage.NewMemoryEngine(), Options{MaxAge: time.Hour})

	s.Save(ctx, sceneA)
	*now = now.Add(time.Hour)

	if _, res := s.Load(ctx); !res.OK() {
		t.Errorf("Load() = %+v, want ok", res)
	}
}

func TestStore_CorruptRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"no state", `{"timestamp":1,"version":1}`},
		{"state not object", `{"state":"x","timestamp":1}`},
		{"json missing", `{"state":{"timestamp":1},"timestamp":1}`},
		{"json empty", `{"state":{"json":"","timestamp":1},"timestamp":1}`},
		{"json not string", `{"state":{"json":{"kind":"group"}},"timestamp":1}`},
		{"sealed without key", "DDSEAL1:garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine := storage.NewMemoryEngine()
			s, _ := newTestStore(t, engine, Options{})
			engine.Set(ctx, []byte(DefaultKey), []byte(tt.raw))

			snap, res := s.Load(ctx)
			if snap != nil || res.Reason != ReasonCorrupt {
				t.Fatalf("Load() = %v, %+v, want nil, corrupt", snap, res)
			}
			if _, err := engine.Get(ctx, []byte(DefaultKey)); !errors.Is(err, storage.ErrKeyNotFound) {
				t.Errorf("corrupt record still stored, Get() error = %v", err)
			}
		})
	}
}

func TestStore_TimestampFallback(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()
	s, now := newTestStore(t, engine, Options{MaxAge: time.Hour})
	old := now.Add(-2 * time.Hour).UnixMilli()

	tests := []struct {
		name   string
		raw    string
		reason Reason
	}{
		{"state timestamp only, old", `{"state":{"json":"{}","timestamp":` + itoa(old) + `}}`, ReasonStale},
		{"no timestamps", `{"state":{"json":"{}"}}`, ReasonNone},
		{"outer timestamp wins", `{"state":{"json":"{}","timestamp":` + itoa(old) + `},"timestamp":` + itoa(now.UnixMilli()) + `}`, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine.Set(ctx, []byte(DefaultKey), []byte(tt.raw))
			_, res := s.Load(ctx)
			if res.Reason != tt.reason {
				t.Errorf("Load() = %+v, want reason %q", res, tt.reason)
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemoryEngine(), Options{Key: "custom.key"})

	s.Save(ctx, sceneA)
	if res := s.Clear(ctx); !res.OK() {
		t.Fatalf("Clear() = %+v", res)
	}
	if _, res := s.Load(ctx); res.Reason != ReasonAbsent {
		t.Errorf("Load() after Clear = %+v, want absent", res)
	}
	if res := s.Clear(ctx); !res.OK() {
		t.Errorf("Clear() on empty store = %+v", res)
	}
}

func TestStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()

	c, err := NewCipher(ctx, engine, DefaultKey, KeySource{Key: []byte("0123456789abcdef0123")})
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	s, _ := newTestStore(t, engine, Options{Cipher: c})

	if res := s.Save(ctx, sceneA); !res.OK() {
		t.Fatalf("Save() = %+v", res)
	}

	raw, _ := engine.Get(ctx, []byte(DefaultKey))
	if !bytes.HasPrefix(raw, sealedPrefix) || bytes.Contains(raw, []byte("rect")) {
		t.Errorf("stored record is not sealed: %q", raw)
	}

	snap, res := s.Load(ctx)
	if !res.OK() || snap.JSON != sceneA {
		t.Fatalf("Load() = %v, %+v", snap, res)
	}

	plain, _ := newTestStore(t, engine, Options{})
	if _, res := plain.Load(ctx); res.Reason != ReasonCorrupt {
		t.Errorf("Load() without key = %+v, want corrupt", res)
	}
}

func TestStore_EncryptedWrongKey(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()

	c1, _ := NewCipher(ctx, engine, DefaultKey, KeySource{Key: []byte("first-key-material-1")})
	c2, _ := NewCipher(ctx, engine, DefaultKey, KeySource{Key: []byte("other-key-material-2")})

	s1, _ := newTestStore(t, engine, Options{Cipher: c1})
	s2, _ := newTestStore(t, engine, Options{Cipher: c2})

	s1.Save(ctx, sceneA)
	if _, res := s2.Load(ctx); res.Reason != ReasonCorrupt {
		t.Errorf("Load() with wrong key = %+v, want corrupt", res)
	}
}

func TestStore_PlainRecordReadableWithKey(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()

	plain, _ := newTestStore(t, engine, Options{})
	plain.Save(ctx, sceneA)

	c, _ := NewCipher(ctx, engine, DefaultKey, KeySource{Key: []byte("0123456789abcdef0123")})
	sealed, _ := newTestStore(t, engine, Options{Cipher: c})
	if snap, res := sealed.Load(ctx); !res.OK() || snap.JSON != sceneA {
		t.Errorf("Load() = %v, %+v", snap, res)
	}
}

func TestNewCipher_PassphraseSaltPersists(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()
	src := KeySource{Passphrase: []byte("correct horse battery")}

	c1, err := NewCipher(ctx, engine, DefaultKey, src)
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}
	salt, err := engine.Get(ctx, []byte(DefaultKey+saltSuffix))
	if err != nil {
		t.Fatalf("salt not stored: %v", err)
	}

	c2, err := NewCipher(ctx, engine, DefaultKey, src)
	if err != nil {
		t.Fatalf("NewCipher() second error = %v", err)
	}
	salt2, _ := engine.Get(ctx, []byte(DefaultKey+saltSuffix))
	if !bytes.Equal(salt, salt2) {
		t.Error("salt was regenerated")
	}

	s1, _ := newTestStore(t, engine, Options{Cipher: c1})
	s2, _ := newTestStore(t, engine, Options{Cipher: c2})
	s1.Save(ctx, sceneA)
	if snap, res := s2.Load(ctx); !res.OK() || snap.JSON != sceneA {
		t.Errorf("Load() = %v, %+v", snap, res)
	}
}

func TestNewCipher_Validation(t *testing.T) {
	ctx := context.Background()
	engine := storage.NewMemoryEngine()

	if c, err := NewCipher(ctx, engine, "", KeySource{}); c != nil || err != nil {
		t.Errorf("NewCipher(empty) = %v, %v, want nil, nil", c, err)
	}
	if _, err := NewCipher(ctx, engine, "", KeySource{Key: []byte("0123456789abcdef"), Passphrase: []byte("long enough")}); err == nil {
		t.Error("NewCipher(both) should fail")
	}
	if _, err := NewCipher(ctx, engine, "", KeySource{Key: []byte("short")}); err == nil {
		t.Error("NewCipher(short key) should fail")
	}
	if _, err := NewCipher(ctx, engine, "", KeySource{Passphrase: []byte("short")}); err == nil {
		t.Error("NewCipher(short passphrase) should fail")
	}
}

// failingEngine fails every read and counts deletes.
type failingEngine struct {
	storage.KVEngine
	deletes int
}

func (f *failingEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (f *failingEngine) Set(ctx context.Context, key, value []byte) error {
	return errors.New("disk on fire")
}

func (f *failingEngine) Delete(ctx context.Context, key []byte) error {
	f.deletes++
	return nil
}

func (f *failingEngine) Sync(ctx context.Context) error { return nil }

func TestStore_IOFailure(t *testing.T) {
	ctx := context.Background()
	engine := &failingEngine{KVEngine: storage.NewMemoryEngine()}
	reg := metric.NewRegistry()
	s, _ := newTestStore(t, engine, Options{Metrics: reg})

	res := s.Save(ctx, sceneA)
	if res.Outcome != OutcomeError || !errors.Is(res.Err, domain.ErrStoreIO) {
		t.Errorf("Save() = %+v, want store i/o error", res)
	}

	snap, res := s.Load(ctx)
	if snap != nil || res.Reason != ReasonIO || !errors.Is(res.Err, domain.ErrStoreIO) {
		t.Errorf("Load() = %v, %+v, want io error", snap, res)
	}
	if engine.deletes != 1 {
		t.Errorf("deletes = %d, want 1", engine.deletes)
	}

	samples, err := reg.Snapshot(false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	var sawWrite, sawLoad bool
	for _, smp := range samples {
		if strings.HasSuffix(smp.Name, "autosave_writes_total") && strings.Contains(smp.Labels, "io") {
			sawWrite = true
		}
		if strings.HasSuffix(smp.Name, "autosave_loads_total") && strings.Contains(smp.Labels, "io") {
			sawLoad = true
		}
	}
	if !sawWrite || !sawLoad {
		t.Errorf("metrics not recorded: write=%v load=%v", sawWrite, sawLoad)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
