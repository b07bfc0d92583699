// Package codec moves inline image payloads out of a scene tree and back.
//
// Extract replaces every inline data URI on an image node with an
// "assets://<id>" pointer and returns the decoded bytes; Restore performs
// the inverse. Both operate on serialized scene JSON and never touch I/O.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

// AssetScheme prefixes asset pointers written into the scene.
const AssetScheme = "assets://"

const defaultExt = "png"

var dataURIPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// Asset is one binary payload lifted out of the scene.
type Asset struct {
	domain.AssetRef
	MIME string
	Data []byte
}

// SkippedNode reports an inline source that could not be decoded.
// The node is left untouched in the rewritten scene.
type SkippedNode struct {
	Path  string
	MIME  string
	Cause error
}

// Extraction is the result of Extract.
type Extraction struct {
	SceneJSON []byte
	Assets    []Asset
	Skipped   []SkippedNode
}

// Restoration is the result of Restore.
type Restoration struct {
	SceneJSON  []byte
	Restored   int
	Unresolved []string
}

// Extract walks the scene depth-first and lifts every inline image payload
// into an Asset. Ids are assigned sequentially in walk order; identical
// payloads share one id.
func Extract(sceneJSON []byte) (*Extraction, error) {
	root, err := domain.ParseScene(sceneJSON)
	if err != nil {
		return nil, domain.ErrParse.WithDetails("scene").WithCause(err)
	}

	out := &Extraction{}
	seen := make(map[[2]uint64][]int)
	counter := 0

	walkWithPath(root, func(n *domain.SceneNode, path string) {
		if n.Kind() != domain.KindImage {
			return
		}
		src, ok := n.StringAttr(domain.SourceKey)
		if !ok {
			return
		}
		mime, data, isData, err := ParseDataURI(src)
		if !isData {
			return
		}
		if err != nil {
			out.Skipped = append(out.Skipped, SkippedNode{
				Path:  path,
				MIME:  mime,
				Cause: domain.ErrAssetDecode.WithCause(err),
			})
			return
		}

		fp := fingerprint(data)
		for _, idx := range seen[fp] {
			if bytes.Equal(out.Assets[idx].Data, data) {
				n.SetAttr(domain.SourceKey, AssetScheme+out.Assets[idx].ID)
				return
			}
		}

		counter++
		id := fmt.Sprintf("img_%03d", counter-1)
		ext := ExtensionFor(mime)
		out.Assets = append(out.Assets, Asset{
			AssetRef: domain.AssetRef{
				ID:           id,
				Filename:     id + "." + ext,
				OriginalName: fmt.Sprintf("image_%d.%s", counter, ext),
			},
			MIME: mime,
			Data: data,
		})
		seen[fp] = append(seen[fp], len(out.Assets)-1)
		n.SetAttr(domain.SourceKey, AssetScheme+id)
	})

	out.SceneJSON, err = root.Encode()
	if err != nil {
		return nil, domain.ErrParse.WithDetails("encode scene").WithCause(err)
	}
	return out, nil
}

// Restore rewrites every asset pointer that has a matching entry in assets
// back into an inline data URI. Pointers without a match stay in place and
// are reported in Unresolved, in walk order without duplicates.
func Restore(sceneJSON []byte, assets map[string]Asset) (*Restoration, error) {
	root, err := domain.ParseScene(sceneJSON)
	if err != nil {
		return nil, domain.ErrParse.WithDetails("scene").WithCause(err)
	}

	out := &Restoration{}
	missing := make(map[string]bool)

	err = domain.Walk(root, func(n *domain.SceneNode, _ int) error {
		src, ok := n.StringAttr(domain.SourceKey)
		if !ok || !strings.HasPrefix(src, AssetScheme) {
			return nil
		}
		id := strings.TrimPrefix(src, AssetScheme)
		a, ok := assets[id]
		if !ok {
			if !missing[id] {
				missing[id] = true
				out.Unresolved = append(out.Unresolved, id)
			}
			return nil
		}
		n.SetAttr(domain.SourceKey, DataURI(a.MIME, a.Data))
		out.Restored++
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.SceneJSON, err = root.Encode()
	if err != nil {
		return nil, domain.ErrParse.WithDetails("encode scene").WithCause(err)
	}
	return out, nil
}

// ParseDataURI splits a base64 data URI. isData is false when s is not a
// data URI at all; err is set when it is one but the payload is not
// valid base64.
//
// Only the exact data:MIME;base64,PAYLOAD form is recognized. URIs with
// extra parameters (data:image/png;name=a.png;base64,...) or without the
// base64 marker report isData false, so Extract leaves them inline.
func ParseDataURI(s string) (mime string, data []byte, isData bool, err error) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return "", nil, false, nil
	}
	data, err = base64.StdEncoding.DecodeString(m[2])
	return m[1], data, true, err
}

// DataURI builds an inline base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ExtensionFor derives a file extension from a MIME type: the lower-cased
// subtype without any structured suffix, or "png" when there is none.
func ExtensionFor(mime string) string {
	_, sub, ok := strings.Cut(mime, "/")
	if !ok {
		return defaultExt
	}
	sub, _, _ = strings.Cut(sub, "+")
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return defaultExt
	}
	return sub
}

// MIMEFor derives a MIME type from an asset filename.
func MIMEFor(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return "image/" + defaultExt
	}
	ext := strings.ToLower(filename[i+1:])
	if ext == "svg" {
		return "image/svg+xml"
	}
	return "image/" + ext
}

func fingerprint(data []byte) [2]uint64 {
	h1, h2 := murmur3.Sum128(data)
	return [2]uint64{h1, h2}
}

// walkWithPath visits nodes like domain.Walk and tracks a slash-separated
// child index path for diagnostics.
func walkWithPath(root *domain.SceneNode, fn func(n *domain.SceneNode, path string)) {
	var visit func(n *domain.SceneNode, path string)
	visit = func(n *domain.SceneNode, path string) {
		fn(n, path)
		for i, child := range n.Children() {
			visit(child, fmt.Sprintf("%s/%d", path, i))
		}
	}
	visit(root, "")
}
