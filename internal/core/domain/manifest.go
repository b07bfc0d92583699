// Package domain defines the core domain models for DrawDoc.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Archive format identity.
const (
	// FormatTag identifies a DrawDoc archive. Archives carrying any other
	// tag are rejected regardless of file extension.
	FormatTag = "canvas-draw"

	// FormatVersion is the manifest version written by this build.
	FormatVersion = "1.0.0"
)

// Default canvas geometry.
const (
	DefaultCanvasWidth      = 800
	DefaultCanvasHeight     = 600
	DefaultCanvasBackground = "#ffffff"
)

// CanvasMeta describes the drawing surface a scene was authored on.
type CanvasMeta struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`
}

// DefaultCanvasMeta returns the default 800x600 white canvas.
func DefaultCanvasMeta() CanvasMeta {
	return CanvasMeta{
		Width:           DefaultCanvasWidth,
		Height:          DefaultCanvasHeight,
		BackgroundColor: DefaultCanvasBackground,
	}
}

// AssetRef indexes one binary asset stored under the archive asset directory.
type AssetRef struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
}

// Manifest is the metadata record at the root of every archive.
//
// Fields beyond the core set are optional so that older readers ignore
// them and newer writers can add more under Extensions.
type Manifest struct {
	Version  string     `json:"version"`
	Format   string     `json:"format"`
	Created  int64      `json:"created"`
	Modified int64      `json:"modified"`
	Canvas   CanvasMeta `json:"canvas"`
	Assets   []AssetRef `json:"assets"`

	DocumentID   string                     `json:"documentId,omitempty"`
	Title        string                     `json:"title,omitempty"`
	Generator    string                     `json:"generator,omitempty"`
	HasThumbnail *bool                      `json:"hasThumbnail,omitempty"`
	Extensions   map[string]json.RawMessage `json:"extensions,omitempty"`
}

// Asset returns the reference with the given id.
func (m *Manifest) Asset(id string) (AssetRef, bool) {
	for _, a := range m.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return AssetRef{}, false
}

// CheckCompatible verifies the format tag and that the manifest's major
// version is not newer than FormatVersion. Newer minor and patch versions
// are accepted: they may only add optional fields.
func (m *Manifest) CheckCompatible() error {
	if m.Format != FormatTag {
		return ErrFormatMismatch.WithDetails(fmt.Sprintf("format %q", m.Format))
	}

	v := canonicalVersion(m.Version)
	if !semver.IsValid(v) {
		return ErrUnsupportedVersion.WithDetails(fmt.Sprintf("invalid version %q", m.Version))
	}
	if semver.Compare(semver.Major(v), semver.Major(canonicalVersion(FormatVersion))) > 0 {
		return ErrUnsupportedVersion.WithDetails(fmt.Sprintf("version %s is newer than %s", m.Version, FormatVersion))
	}
	return nil
}

// canonicalVersion adds the "v" prefix x/mod/semver expects.
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
