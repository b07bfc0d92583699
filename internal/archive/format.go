package archive

import (
	"path"
	"strings"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

// Archive entry names.
const (
	ManifestEntry  = "manifest.json"
	SceneEntry     = "canvas.json"
	ThumbnailEntry = "thumbnail.png"
	AssetDir       = "assets"
)

// Extension is the document file extension.
const Extension = ".draw"

// Media types accepted by IsValidContainer.
const (
	MediaTypeZip  = "application/zip"
	MediaTypeDraw = "application/x-draw"
)

// Reason classifies an unpack failure.
type Reason string

// Unpack failure reasons.
const (
	ReasonNone               Reason = ""
	ReasonInvalidContainer   Reason = "invalid_container"
	ReasonMissingManifest    Reason = "missing_manifest"
	ReasonParseError         Reason = "parse_error"
	ReasonFormatMismatch     Reason = "format_mismatch"
	ReasonUnsupportedVersion Reason = "unsupported_version"
	ReasonMissingScene       Reason = "missing_scene"
	ReasonEntryTooLarge      Reason = "entry_too_large"
	ReasonCanceled           Reason = "canceled"
)

// reasonFor maps a domain error onto an unpack reason.
func reasonFor(err error) Reason {
	switch domain.GetErrorCode(err) {
	case domain.ErrInvalidContainer.Code:
		return ReasonInvalidContainer
	case domain.ErrMissingManifest.Code:
		return ReasonMissingManifest
	case domain.ErrParse.Code:
		return ReasonParseError
	case domain.ErrFormatMismatch.Code:
		return ReasonFormatMismatch
	case domain.ErrUnsupportedVersion.Code:
		return ReasonUnsupportedVersion
	case domain.ErrMissingScene.Code:
		return ReasonMissingScene
	case domain.ErrEntryTooLarge.Code:
		return ReasonEntryTooLarge
	default:
		return ReasonInvalidContainer
	}
}

// AssetEntry returns the archive entry name for an asset filename.
func AssetEntry(filename string) string {
	return path.Join(AssetDir, filename)
}

// IsValidContainer reports whether a file looks like a document archive,
// either by its extension or by its declared media type.
func IsValidContainer(name, mediaType string) bool {
	if strings.HasSuffix(strings.ToLower(name), Extension) {
		return true
	}
	mt, _, _ := strings.Cut(strings.ToLower(mediaType), ";")
	mt = strings.TrimSpace(mt)
	return mt == MediaTypeZip || mt == MediaTypeDraw
}
