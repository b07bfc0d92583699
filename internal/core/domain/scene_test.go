package domain

import (
	"errors"
	"strings"
	"testing"
)

const sampleScene = `{"kind":"layer","children":[{"kind":"group","objects":[{"kind":"image","src":"data:image/png;base64,AAAA","width":12.5}]},{"kind":"rect","fill":"#ff0000"}]}`

func TestParseScene(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"object root", sampleScene, false},
		{"empty object", `{}`, false},
		{"array root", `[1,2]`, true},
		{"null root", `null`, true},
		{"truncated", `{"kind":`, true},
		{"trailing data", `{"kind":"layer"} {}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseScene() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSceneNode_EncodeRoundTrip(t *testing.T) {
	root, err := ParseScene([]byte(sampleScene))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	first, err := root.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	again, err := ParseScene(first)
	if err != nil {
		t.Fatalf("ParseScene(encoded) error = %v", err)
	}
	second, err := again.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("encoding not stable:\n%s\n%s", first, second)
	}
	if !strings.Contains(string(first), `"width":12.5`) {
		t.Errorf("number not preserved: %s", first)
	}
}

func TestSceneNode_Kind(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"kind field", `{"kind":"image"}`, "image"},
		{"legacy type field", `{"type":"image"}`, "image"},
		{"kind wins", `{"kind":"rect","type":"image"}`, "rect"},
		{"none", `{"width":3}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseScene([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseScene() error = %v", err)
			}
			if got := n.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalk_Order(t *testing.T) {
	root, _ := ParseScene([]byte(sampleScene))

	var kinds []string
	var depths []int
	err := Walk(root, func(n *SceneNode, depth int) error {
		kinds = append(kinds, n.Kind())
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	wantKinds := []string{"layer", "group", "image", "rect"}
	wantDepths := []int{0, 1, 2, 1}
	if strings.Join(kinds, ",") != strings.Join(wantKinds, ",") {
		t.Errorf("kinds = %v, want %v", kinds, wantKinds)
	}
	for i := range wantDepths {
		if depths[i] != wantDepths[i] {
			t.Errorf("depth[%d] = %d, want %d", i, depths[i], wantDepths[i])
		}
	}
}

func TestWalk_SkipAndStop(t *testing.T) {
	root, _ := ParseScene([]byte(sampleScene))

	var visited int
	_ = Walk(root, func(n *SceneNode, depth int) error {
		visited++
		if n.Kind() == "group" {
			return SkipChildren
		}
		return nil
	})
	if visited != 3 {
		t.Errorf("visited = %d, want 3 with group subtree skipped", visited)
	}

	stop := errors.New("stop")
	err := Walk(root, func(n *SceneNode, depth int) error {
		if n.Kind() == "image" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
}

func TestWalk_MutationVisibleInTree(t *testing.T) {
	root, _ := ParseScene([]byte(sampleScene))

	_ = Walk(root, func(n *SceneNode, depth int) error {
		if n.Kind() == KindImage {
			n.SetAttr(SourceKey, "assets://img_001")
		}
		return nil
	})

	out, _ := root.Encode()
	if !strings.Contains(string(out), `"src":"assets://img_001"`) {
		t.Errorf("mutation lost: %s", out)
	}
}

func TestSceneNode_AppendRemoveChild(t *testing.T) {
	root := NewSceneNode("layer", nil)
	if _, ok := root.Attr("children"); ok {
		t.Fatal("new node should have no children field")
	}

	root.AppendChild(NewSceneNode("rect", nil))
	root.AppendChild(NewSceneNode("ellipse", nil))
	if got := len(root.Children()); got != 2 {
		t.Fatalf("len(Children()) = %d, want 2", got)
	}

	if !root.RemoveChild(0) {
		t.Fatal("RemoveChild(0) = false")
	}
	children := root.Children()
	if len(children) != 1 || children[0].Kind() != "ellipse" {
		t.Errorf("after remove: %v", children)
	}
	if root.RemoveChild(5) {
		t.Error("RemoveChild(5) should fail")
	}

	fabric, _ := ParseScene([]byte(`{"objects":[]}`))
	fabric.AppendChild(NewSceneNode("rect", nil))
	out, _ := fabric.Encode()
	if !strings.Contains(string(out), `"objects":[{"kind":"rect"}]`) {
		t.Errorf("child not appended to existing container: %s", out)
	}
}

func TestSceneNode_Clone(t *testing.T) {
	root, _ := ParseScene([]byte(sampleScene))
	clone := root.Clone()

	_ = Walk(clone, func(n *SceneNode, depth int) error {
		n.SetAttr("touched", true)
		return nil
	})

	out, _ := root.Encode()
	if strings.Contains(string(out), "touched") {
		t.Errorf("clone shares storage with original: %s", out)
	}
}
