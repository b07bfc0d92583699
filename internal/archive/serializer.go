package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/drawdoc/internal/core/codec"
	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

// DefaultMaxEntryBytes caps the uncompressed size of any single entry.
const DefaultMaxEntryBytes int64 = 64 << 20

// Config configures a Serializer.
type Config struct {
	ThumbnailWidth  int
	ThumbnailHeight int

	// ThumbnailRequired makes a failed preview fail the whole pack.
	// When false the archive is written without thumbnail.png.
	ThumbnailRequired bool

	MaxEntryBytes int64

	// Generator is recorded in the manifest.
	Generator string
}

// DefaultConfig returns the default serializer configuration.
func DefaultConfig() Config {
	return Config{
		ThumbnailWidth:  DefaultThumbnailWidth,
		ThumbnailHeight: DefaultThumbnailHeight,
		MaxEntryBytes:   DefaultMaxEntryBytes,
	}
}

// Serializer packs scenes into archives and unpacks them again.
type Serializer struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// NewSerializer creates a serializer. metrics may be nil.
func NewSerializer(cfg Config, logger *slog.Logger, metrics *metric.Registry) *Serializer {
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DefaultThumbnailWidth
	}
	if cfg.ThumbnailHeight <= 0 {
		cfg.ThumbnailHeight = DefaultThumbnailHeight
	}
	if cfg.MaxEntryBytes <= 0 {
		cfg.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{
		cfg:     cfg,
		logger:  logger.With("component", "archive"),
		metrics: metrics,
		now:     time.Now,
	}
}

// PackRequest is the input to Pack.
type PackRequest struct {
	SceneJSON []byte

	// Raster renders the preview. Nil counts as a thumbnail failure.
	Raster RasterSource

	// Canvas defaults to 800x600 white when zero.
	Canvas domain.CanvasMeta
	Title  string

	// DocumentID and Created carry identity across re-exports.
	// A new ULID and the current time are used when empty.
	DocumentID string
	Created    int64
}

// PackResult is the output of Pack.
type PackResult struct {
	Data     []byte
	Manifest domain.Manifest

	// Skipped lists inline payloads that could not be decoded and were
	// left in the scene as-is.
	Skipped []codec.SkippedNode

	// ThumbnailErr is set when the preview could not be produced and the
	// archive was written without it.
	ThumbnailErr error
}

// Pack extracts inline assets from the scene and writes a complete archive.
func (s *Serializer) Pack(ctx context.Context, req PackRequest) (*PackResult, error) {
	start := time.Now()
	res, err := s.pack(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveArchive("pack", outcome, time.Since(start))
	return res, err
}

func (s *Serializer) pack(ctx context.Context, req PackRequest) (*PackResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext, err := codec.Extract(req.SceneJSON)
	if err != nil {
		return nil, err
	}
	for _, sk := range ext.Skipped {
		s.logger.Warn("inline asset could not be decoded; left in scene",
			"path", sk.Path, "mime", sk.MIME, "error", sk.Cause)
	}

	thumb, thumbErr := renderThumbnail(req.Raster, s.cfg.ThumbnailWidth, s.cfg.ThumbnailHeight)
	if thumbErr != nil {
		if s.cfg.ThumbnailRequired {
			return nil, thumbErr
		}
		s.logger.Warn("thumbnail unavailable; packing without preview", "error", thumbErr)
	}

	now := s.now().UnixMilli()
	hasThumb := thumbErr == nil
	m := domain.Manifest{
		Version:      domain.FormatVersion,
		Format:       domain.FormatTag,
		Created:      req.Created,
		Modified:     now,
		Canvas:       req.Canvas,
		Assets:       make([]domain.AssetRef, 0, len(ext.Assets)),
		DocumentID:   req.DocumentID,
		Title:        req.Title,
		Generator:    s.cfg.Generator,
		HasThumbnail: &hasThumb,
	}
	if m.Created == 0 {
		m.Created = now
	}
	if m.Canvas == (domain.CanvasMeta{}) {
		m.Canvas = domain.DefaultCanvasMeta()
	}
	if m.DocumentID == "" {
		m.DocumentID = ulid.Make().String()
	}
	for _, a := range ext.Assets {
		m.Assets = append(m.Assets, a.AssetRef)
	}

	manifestJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("archive: encode manifest: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.UnixMilli(now)

	if err := writeEntry(zw, ManifestEntry, manifestJSON, modified); err != nil {
		return nil, err
	}
	if err := writeEntry(zw, SceneEntry, ext.SceneJSON, modified); err != nil {
		return nil, err
	}
	if hasThumb {
		if err := writeEntry(zw, ThumbnailEntry, thumb, modified); err != nil {
			return nil, err
		}
	}
	for _, a := range ext.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeEntry(zw, AssetEntry(a.Filename), a.Data, modified); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}

	s.metrics.AddArchiveAssets(len(ext.Assets))
	s.logger.Debug("archive packed",
		"document_id", m.DocumentID,
		"assets", len(m.Assets),
		"bytes", buf.Len(),
		"thumbnail", hasThumb)

	return &PackResult{
		Data:         buf.Bytes(),
		Manifest:     m,
		Skipped:      ext.Skipped,
		ThumbnailErr: thumbErr,
	}, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("archive: write %s: %w", name, err)
	}
	return nil
}

// UnpackResult is the outcome of Unpack.
type UnpackResult struct {
	Success bool
	Reason  Reason
	Message string
	Err     error

	Manifest *domain.Manifest

	// SceneJSON is the scene with asset pointers resolved back into
	// inline data URIs.
	SceneJSON []byte

	// Assets holds every asset found in the archive, keyed by id.
	Assets map[string]codec.Asset

	// Unresolved lists asset ids referenced by the scene that have no
	// entry in the archive. Their pointers are left in the scene.
	Unresolved []string
}

func failed(err error) *UnpackResult {
	r := reasonFor(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r = ReasonCanceled
	}
	return &UnpackResult{
		Reason:  r,
		Message: err.Error(),
		Err:     err,
	}
}

// Unpack validates an archive and restores its scene.
func (s *Serializer) Unpack(ctx context.Context, blob []byte) *UnpackResult {
	start := time.Now()
	res := s.unpack(ctx, blob)
	outcome := "ok"
	if !res.Success {
		outcome = string(res.Reason)
		s.logger.Warn("archive rejected", "reason", res.Reason, "error", res.Err)
	}
	s.metrics.ObserveArchive("unpack", outcome, time.Since(start))
	return res
}

func (s *Serializer) unpack(ctx context.Context, blob []byte) *UnpackResult {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	r, err := openReader(blob, s.cfg.MaxEntryBytes)
	if err != nil {
		return failed(err)
	}

	m, err := r.manifest()
	if err != nil {
		return failed(err)
	}

	sceneFile := r.lookup(SceneEntry)
	if sceneFile == nil {
		return failed(domain.ErrMissingScene)
	}
	sceneJSON, err := r.read(sceneFile)
	if err != nil {
		return failed(err)
	}

	assets := make(map[string]codec.Asset, len(m.Assets))
	for _, ref := range m.Assets {
		if err := ctx.Err(); err != nil {
			return failed(err)
		}
		f := r.lookup(AssetEntry(ref.Filename))
		if f == nil {
			s.logger.Warn("asset entry missing", "id", ref.ID, "filename", ref.Filename)
			continue
		}
		data, err := r.read(f)
		if err != nil {
			return failed(err)
		}
		assets[ref.ID] = codec.Asset{
			AssetRef: ref,
			MIME:     codec.MIMEFor(ref.Filename),
			Data:     data,
		}
	}

	restored, err := codec.Restore(sceneJSON, assets)
	if err != nil {
		return failed(err)
	}
	if len(restored.Unresolved) > 0 {
		s.logger.Warn("unresolved asset references", "ids", restored.Unresolved)
	}

	return &UnpackResult{
		Success:    true,
		Manifest:   m,
		SceneJSON:  restored.SceneJSON,
		Assets:     assets,
		Unresolved: restored.Unresolved,
	}
}

// Preview returns the stored thumbnail bytes, or nil when the blob is not
// an archive or carries no preview. The scene is never parsed.
func (s *Serializer) Preview(blob []byte) []byte {
	r, err := openReader(blob, s.cfg.MaxEntryBytes)
	if err != nil {
		return nil
	}
	f := r.lookup(ThumbnailEntry)
	if f == nil {
		return nil
	}
	data, err := r.read(f)
	if err != nil {
		return nil
	}
	return data
}

// ReadManifest validates and returns an archive's manifest without
// touching the scene or assets.
func (s *Serializer) ReadManifest(blob []byte) (*domain.Manifest, error) {
	r, err := openReader(blob, s.cfg.MaxEntryBytes)
	if err != nil {
		return nil, err
	}
	return r.manifest()
}

// reader indexes a zip archive held in memory.
type reader struct {
	zr      *zip.Reader
	byName  map[string]*zip.File
	maxSize int64
}

func openReader(blob []byte, maxSize int64) (*reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, domain.ErrInvalidContainer.WithCause(err)
	}
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}
	return &reader{zr: zr, byName: byName, maxSize: maxSize}, nil
}

func (r *reader) lookup(name string) *zip.File {
	return r.byName[name]
}

func (r *reader) read(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(r.maxSize) {
		return nil, domain.ErrEntryTooLarge.WithDetails(f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, domain.ErrInvalidContainer.WithDetails(f.Name).WithCause(err)
	}
	defer rc.Close()

	// The header size can lie; bound the actual read too.
	data, err := io.ReadAll(io.LimitReader(rc, r.maxSize+1))
	if err != nil {
		return nil, domain.ErrInvalidContainer.WithDetails(f.Name).WithCause(err)
	}
	if int64(len(data)) > r.maxSize {
		return nil, domain.ErrEntryTooLarge.WithDetails(f.Name)
	}
	return data, nil
}

func (r *reader) manifest() (*domain.Manifest, error) {
	f := r.lookup(ManifestEntry)
	if f == nil {
		return nil, domain.ErrMissingManifest
	}
	data, err := r.read(f)
	if err != nil {
		return nil, err
	}
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.ErrParse.WithDetails(ManifestEntry).WithCause(err)
	}
	if err := m.CheckCompatible(); err != nil {
		return nil, err
	}
	return &m, nil
}
