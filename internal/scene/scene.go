package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/drawdoc/internal/core/domain"
)

// RootKind is the kind of a scene's root node.
const RootKind = "scene"

// ErrNoNode is returned when an index does not name a top-level node.
var ErrNoNode = errors.New("scene: no such node")

// Scene is a mutable scene tree.
type Scene struct {
	mu       sync.RWMutex
	root     *domain.SceneNode
	listener func()
}

// New creates an empty scene on the given canvas.
func New(canvas domain.CanvasMeta) *Scene {
	return &Scene{root: newRoot(canvas)}
}

func newRoot(canvas domain.CanvasMeta) *domain.SceneNode {
	return domain.NewSceneNode(RootKind, map[string]any{
		"width":      canvas.Width,
		"height":     canvas.Height,
		"background": canvas.BackgroundColor,
		"children":   []any{},
	})
}

// Parse creates a scene from its JSON form.
func Parse(sceneJSON string) (*Scene, error) {
	root, err := domain.ParseScene([]byte(sceneJSON))
	if err != nil {
		return nil, err
	}
	return &Scene{root: root}, nil
}

// OnChange sets the function called after every mutation, including
// Load. It runs without the scene lock held.
func (s *Scene) OnChange(fn func()) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Serialize returns the scene as compact JSON.
func (s *Scene) Serialize() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.root.Encode()
	if err != nil {
		return "", fmt.Errorf("scene: encode: %w", err)
	}
	return string(data), nil
}

// Load replaces the tree. done is called before Load returns.
func (s *Scene) Load(sceneJSON string, done func(error)) {
	root, err := domain.ParseScene([]byte(sceneJSON))
	if err != nil {
		done(err)
		return
	}

	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	s.changed()
	done(nil)
}

// Canvas returns the canvas geometry stored on the root node.
func (s *Scene) Canvas() domain.CanvasMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return canvasOf(s.root)
}

// Root returns a deep copy of the tree.
func (s *Scene) Root() *domain.SceneNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// Add appends a top-level node and returns its index.
func (s *Scene) Add(kind string, attrs map[string]any) int {
	s.mu.Lock()
	s.root.AppendChild(domain.NewSceneNode(kind, attrs))
	n := len(s.root.Children()) - 1
	s.mu.Unlock()

	s.changed()
	return n
}

// Remove deletes the i-th top-level node.
func (s *Scene) Remove(i int) error {
	s.mu.Lock()
	removed := s.root.RemoveChild(i)
	s.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: %d", ErrNoNode, i)
	}
	s.changed()
	return nil
}

// Set changes one attribute of the i-th top-level node.
func (s *Scene) Set(i int, key string, value any) error {
	s.mu.Lock()
	children := s.root.Children()
	if i < 0 || i >= len(children) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoNode, i)
	}
	children[i].SetAttr(key, value)
	s.mu.Unlock()

	s.changed()
	return nil
}

// Clear removes every top-level node, keeping the canvas.
func (s *Scene) Clear() {
	s.mu.Lock()
	s.root = newRoot(canvasOf(s.root))
	s.mu.Unlock()

	s.changed()
}

// Summary describes one top-level node.
type Summary struct {
	Index int
	Kind  string
	Depth int // deepest descendant level below the node
	Asset string
}

// Nodes summarizes the top-level nodes.
func (s *Scene) Nodes() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := s.root.Children()
	out := make([]Summary, 0, len(children))
	for i, child := range children {
		sum := Summary{Index: i, Kind: child.Kind()}
		_ = domain.Walk(child, func(n *domain.SceneNode, depth int) error {
			if depth > sum.Depth {
				sum.Depth = depth
			}
			if src, ok := n.StringAttr(domain.SourceKey); ok && sum.Asset == "" && n.Kind() == domain.KindImage {
				sum.Asset = src
			}
			return nil
		})
		out = append(out, sum)
	}
	return out
}

func (s *Scene) changed() {
	s.mu.RLock()
	fn := s.listener
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// canvasOf reads canvas geometry from a root node, defaulting each field.
func canvasOf(root *domain.SceneNode) domain.CanvasMeta {
	c := domain.DefaultCanvasMeta()
	if w, ok := number(root, "width"); ok && w > 0 {
		c.Width = int(w)
	}
	if h, ok := number(root, "height"); ok && h > 0 {
		c.Height = int(h)
	}
	for _, key := range []string{"background", "backgroundColor"} {
		if bg, ok := root.StringAttr(key); ok && bg != "" {
			c.BackgroundColor = bg
			break
		}
	}
	return c
}
