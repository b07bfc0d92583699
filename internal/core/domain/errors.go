// Package domain defines the core domain models for DrawDoc.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a document-engine error with a structured error code.
//
// Codes follow the format DD-<AREA>-<NNNN>. The numeric part mirrors HTTP
// semantics: 4xxx for bad input (archives, scenes), 5xxx for local failures.
type DomainError struct {
	Code    string // Error code (e.g., "DD-FMT-4002")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Archive Format Errors (FMT)
// ============================================================================

var (
	// ErrMissingManifest indicates the archive has no manifest.json entry.
	ErrMissingManifest = NewDomainError("DD-FMT-4000", "archive is missing manifest.json")

	// ErrMissingScene indicates the archive has no canvas.json entry.
	ErrMissingScene = NewDomainError("DD-FMT-4001", "archive is missing canvas.json")

	// ErrFormatMismatch indicates the manifest format tag is not recognized.
	ErrFormatMismatch = NewDomainError("DD-FMT-4002", "unsupported document format")

	// ErrUnsupportedVersion indicates the manifest major version is newer than supported.
	ErrUnsupportedVersion = NewDomainError("DD-FMT-4003", "unsupported document version")

	// ErrInvalidContainer indicates the blob is not a readable archive.
	ErrInvalidContainer = NewDomainError("DD-FMT-4004", "not a valid document archive")

	// ErrEntryTooLarge indicates an archive entry exceeds the configured size cap.
	ErrEntryTooLarge = NewDomainError("DD-FMT-4005", "archive entry too large")
)

// ============================================================================
// Parse Errors (PRS)
// ============================================================================

var (
	// ErrParse indicates malformed JSON in a manifest or scene.
	ErrParse = NewDomainError("DD-PRS-4000", "malformed document data")
)

// ============================================================================
// Asset Errors (AST)
// ============================================================================

var (
	// ErrAssetDecode indicates an inline asset payload could not be decoded.
	ErrAssetDecode = NewDomainError("DD-AST-4000", "asset payload could not be decoded")

	// ErrAssetUnresolved indicates an asset reference has no matching archive entry.
	ErrAssetUnresolved = NewDomainError("DD-AST-4040", "asset reference unresolved")
)

// ============================================================================
// Local Failures (THM, STO, HIS, DOC)
// ============================================================================

var (
	// ErrThumbnail indicates preview raster generation failed.
	ErrThumbnail = NewDomainError("DD-THM-5000", "thumbnail generation failed")

	// ErrStoreIO indicates the persistent key-value store failed.
	ErrStoreIO = NewDomainError("DD-STO-5000", "store i/o failure")

	// ErrHistoryRestore indicates a snapshot could not be loaded into the scene.
	ErrHistoryRestore = NewDomainError("DD-HIS-4000", "history state could not be restored")

	// ErrSceneUnavailable indicates no scene provider is bound or it failed to serialize.
	ErrSceneUnavailable = NewDomainError("DD-DOC-4000", "scene unavailable")
)
