// Package domain defines the core domain models for DrawDoc.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Scene tree field names.
const (
	// KindKey is the node discriminator.
	KindKey = "kind"

	// LegacyKindKey is consulted when KindKey is absent (Fabric-style trees).
	LegacyKindKey = "type"

	// KindImage marks nodes that may carry an inline asset in their "src".
	KindImage = "image"

	// SourceKey holds an image node's source URI.
	SourceKey = "src"
)

// ContainerKeys are the well-known fields holding child nodes.
// Traversal recurses into every one of them that is present.
var ContainerKeys = []string{"children", "objects"}

// SkipChildren can be returned by a WalkFunc to skip a node's subtree.
var SkipChildren = errors.New("skip children")

// SceneNode is one node of a scene tree.
//
// The node keeps every attribute of the decoded JSON object so that kinds
// the engine knows nothing about survive a round trip unchanged. Only the
// discriminator and the container fields carry meaning here.
type SceneNode struct {
	attrs map[string]any
}

// NewSceneNode creates a node of the given kind with a copy of attrs.
func NewSceneNode(kind string, attrs map[string]any) *SceneNode {
	m := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		m[k] = v
	}
	if kind != "" {
		m[KindKey] = kind
	}
	return &SceneNode{attrs: m}
}

// ParseScene decodes a scene tree. The root must be a JSON object.
// Numbers are kept as json.Number so they re-encode byte-for-byte.
func ParseScene(data []byte) (*SceneNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if root == nil {
		return nil, errors.New("decode scene: root is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode scene: trailing data after root object")
	}
	return &SceneNode{attrs: root}, nil
}

// Kind returns the node discriminator, or "" when the node has none.
func (n *SceneNode) Kind() string {
	if k, ok := n.attrs[KindKey].(string); ok {
		return k
	}
	if k, ok := n.attrs[LegacyKindKey].(string); ok {
		return k
	}
	return ""
}

// Attr returns a raw attribute value.
func (n *SceneNode) Attr(key string) (any, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// StringAttr returns an attribute if it is a string.
func (n *SceneNode) StringAttr(key string) (string, bool) {
	s, ok := n.attrs[key].(string)
	return s, ok
}

// SetAttr sets an attribute in place.
func (n *SceneNode) SetAttr(key string, value any) {
	n.attrs[key] = value
}

// Children returns the node's children across all container fields.
// The returned nodes share storage with the tree; mutating them mutates it.
// Non-object array elements are not nodes and are skipped.
func (n *SceneNode) Children() []*SceneNode {
	var out []*SceneNode
	for _, key := range ContainerKeys {
		list, ok := n.attrs[key].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, &SceneNode{attrs: m})
			}
		}
	}
	return out
}

// AppendChild appends a child to the node's first existing container field,
// creating "children" when the node has none.
func (n *SceneNode) AppendChild(child *SceneNode) {
	key := ContainerKeys[0]
	for _, k := range ContainerKeys {
		if _, ok := n.attrs[k].([]any); ok {
			key = k
			break
		}
	}
	list, _ := n.attrs[key].([]any)
	n.attrs[key] = append(list, child.attrs)
}

// RemoveChild removes the i-th child as returned by Children.
func (n *SceneNode) RemoveChild(i int) bool {
	if i < 0 {
		return false
	}
	for _, key := range ContainerKeys {
		list, ok := n.attrs[key].([]any)
		if !ok {
			continue
		}
		for j, item := range list {
			if _, ok := item.(map[string]any); !ok {
				continue
			}
			if i == 0 {
				n.attrs[key] = append(list[:j:j], list[j+1:]...)
				return true
			}
			i--
		}
	}
	return false
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *SceneNode) Clone() *SceneNode {
	return &SceneNode{attrs: cloneValue(n.attrs).(map[string]any)}
}

// Encode serializes the subtree as compact JSON without HTML escaping.
func (n *SceneNode) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n.attrs); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalJSON implements json.Marshaler.
func (n *SceneNode) MarshalJSON() ([]byte, error) {
	return n.Encode()
}

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(node *SceneNode, depth int) error

// Walk visits root and its descendants depth-first, parents before children,
// in container-field then array order. Returning SkipChildren from fn skips
// the current node's subtree; any other error stops the walk and is returned.
func Walk(root *SceneNode, fn WalkFunc) error {
	return walk(root, 0, fn)
}

func walk(n *SceneNode, depth int, fn WalkFunc) error {
	if err := fn(n, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range n.Children() {
		if err := walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return t
	}
}
