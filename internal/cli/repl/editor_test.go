package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/core/codec"
	"github.com/yndnr/drawdoc/internal/core/domain"
	"github.com/yndnr/drawdoc/internal/core/history"
	"github.com/yndnr/drawdoc/internal/core/service"
	"github.com/yndnr/drawdoc/internal/scene"
	"github.com/yndnr/drawdoc/internal/storage"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

type editorFixture struct {
	scene  *scene.Scene
	store  *autosave.Store
	editor *Editor
	out    *bytes.Buffer
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	log := logger.Discard()
	metrics := metric.NewRegistry()
	sc := scene.New(domain.CanvasMeta{Width: 40, Height: 30, BackgroundColor: "#ffffff"})
	store := autosave.NewStore(storage.NewMemoryEngine(), autosave.Options{Logger: log, Metrics: metrics})

	doc := service.NewDocumentService(sc, service.Options{
		Serializer: archive.NewSerializer(archive.DefaultConfig(), log, metrics),
		History:    history.New(history.DefaultMaxSize, log, metrics),
		AutoSave:   store,
		Scheduler:  autosave.SchedulerConfig{Debounce: time.Hour, Interval: time.Hour},
		Renderer:   scene.NewRenderer(sc),
		Logger:     log,
	})
	if _, err := doc.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { doc.Close(context.Background()) })

	var out bytes.Buffer
	e := NewEditor(EditorOptions{
		Document: doc,
		Scene:    sc,
		Metrics:  metrics,
		Output:   &out,
		Format:   output.FormatTable,
	})
	return &editorFixture{scene: sc, store: store, editor: e, out: &out}
}

func (f *editorFixture) exec(t *testing.T, line string) error {
	t.Helper()
	args, err := Split(line)
	if err != nil {
		t.Fatalf("Split(%q) error = %v", line, err)
	}
	f.out.Reset()
	return f.editor.Execute(context.Background(), args)
}

func (f *editorFixture) mustExec(t *testing.T, line string) string {
	t.Helper()
	if err := f.exec(t, line); err != nil {
		t.Fatalf("%s: error = %v", line, err)
	}
	return f.out.String()
}

func TestEditor_Commands(t *testing.T) {
	f := newEditorFixture(t)
	names := make(map[string]bool)
	for _, c := range f.editor.Commands() {
		names[c.Name] = true
	}
	for _, want := range []string{"add", "rm", "set", "ls", "show", "clear", "undo", "redo", "history",
		"export", "import", "flush", "discard", "recover", "stats", "loglevel"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestEditor_AddSetRemove(t *testing.T) {
	f := newEditorFixture(t)

	if out := f.mustExec(t, "add rect x=1 y=2 width=10 height=5 fill=#ff0000"); out != "added rect at 0\n" {
		t.Errorf("add output = %q", out)
	}
	f.mustExec(t, "add ellipse")
	f.mustExec(t, "set 0 fill '#00ff00'")

	root := f.scene.Root()
	children := root.Children()
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if fill, _ := children[0].StringAttr("fill"); fill != "#00ff00" {
		t.Errorf("fill = %q, want #00ff00", fill)
	}
	if w, _ := children[0].Attr("width"); w != json.Number("10") {
		t.Errorf("width = %#v, want json.Number(10)", w)
	}

	f.mustExec(t, "rm 0")
	if nodes := f.scene.Nodes(); len(nodes) != 1 || nodes[0].Kind != "ellipse" {
		t.Errorf("nodes after rm = %+v", nodes)
	}

	if err := f.exec(t, "rm 5"); err == nil {
		t.Error("rm out of range should fail")
	}
}

func TestEditor_UsageErrors(t *testing.T) {
	f := newEditorFixture(t)
	tests := []struct {
		line string
		want string
	}{
		{"add", "usage: add KIND [KEY=VALUE...]"},
		{"rm x", "usage: rm INDEX"},
		{"set 0 fill", "usage: set INDEX KEY VALUE"},
		{"export", "usage: export FILE [TITLE]"},
		{"add rect novalue", `attribute "novalue" is not KEY=VALUE`},
		{"loglevel a b", "usage: loglevel [LEVEL]"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := f.exec(t, tt.line)
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestEditor_List(t *testing.T) {
	f := newEditorFixture(t)
	f.mustExec(t, "add rect")
	f.scene.Add(domain.KindImage, map[string]any{"src": codec.DataURI("image/png", []byte("12345"))})

	out := f.mustExec(t, "ls")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("ls lines = %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "INDEX") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "image/png, 5 B") {
		t.Errorf("image row = %q", lines[2])
	}
}

func TestEditor_Show(t *testing.T) {
	f := newEditorFixture(t)
	f.mustExec(t, "add rect")

	out := f.mustExec(t, "show")
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if decoded["kind"] != scene.RootKind {
		t.Errorf("root kind = %v", decoded["kind"])
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("show output is not indented")
	}
}

func TestEditor_UndoRedoHistory(t *testing.T) {
	f := newEditorFixture(t)
	f.mustExec(t, "add rect")
	f.mustExec(t, "add line")

	f.mustExec(t, "undo")
	if n := len(f.scene.Nodes()); n != 1 {
		t.Errorf("nodes after undo = %d, want 1", n)
	}

	out := f.mustExec(t, "history")
	for _, want := range []string{"position", "2", "entries", "3", "canUndo", "canRedo", "true"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}

	out = f.mustExec(t, "history list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.Contains(lines[0], "SAVED_AT") {
		t.Fatalf("history list output:\n%s", out)
	}
	for i, line := range lines[1:] {
		fields := strings.Fields(line)
		wantCurrent := strconv.FormatBool(i == 1)
		if fields[0] != strconv.Itoa(i+1) || fields[len(fields)-1] != wantCurrent {
			t.Errorf("history list row %d = %q, want position %d current %s", i, line, i+1, wantCurrent)
		}
	}
	if err := f.exec(t, "history bogus"); err == nil || !strings.Contains(err.Error(), "usage: history") {
		t.Errorf("history bogus: err = %v, want usage", err)
	}

	f.mustExec(t, "redo")
	if n := len(f.scene.Nodes()); n != 2 {
		t.Errorf("nodes after redo = %d, want 2", n)
	}
	if err := f.exec(t, "redo"); err == nil || err.Error() != "nothing to redo" {
		t.Errorf("redo at top error = %v", err)
	}

	f.mustExec(t, "undo")
	f.mustExec(t, "undo")
	if err := f.exec(t, "undo"); err == nil || err.Error() != "nothing to undo" {
		t.Errorf("undo at bottom error = %v", err)
	}
}

func TestEditor_ExportImport(t *testing.T) {
	f := newEditorFixture(t)
	path := filepath.Join(t.TempDir(), "doc.draw")

	f.mustExec(t, "add rect width=10 height=10 fill=#0000ff")
	f.scene.Add(domain.KindImage, map[string]any{"src": codec.DataURI("image/png", []byte("not really png"))})

	out := f.mustExec(t, "export "+path+" 'My Doc'")
	if !strings.Contains(out, "wrote "+path) || !strings.Contains(out, "1 assets") {
		t.Errorf("export output = %q", out)
	}

	blob, err := archive.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	m, err := archive.NewSerializer(archive.DefaultConfig(), logger.Discard(), nil).ReadManifest(blob)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if m.Title != "My Doc" {
		t.Errorf("title = %q", m.Title)
	}

	f.mustExec(t, "clear")
	if n := len(f.scene.Nodes()); n != 0 {
		t.Fatalf("nodes after clear = %d", n)
	}

	out = f.mustExec(t, "import "+path)
	if !strings.Contains(out, "imported "+path+" (2 nodes)") {
		t.Errorf("import output = %q", out)
	}
	nodes := f.scene.Nodes()
	if len(nodes) != 2 || nodes[1].Kind != domain.KindImage {
		t.Errorf("nodes after import = %+v", nodes)
	}
}

func TestEditor_ImportRejected(t *testing.T) {
	f := newEditorFixture(t)
	f.mustExec(t, "add rect")

	path := filepath.Join(t.TempDir(), "bad.draw")
	if err := archive.WriteFile(path, []byte("not a zip")); err != nil {
		t.Fatal(err)
	}

	err := f.exec(t, "import "+path)
	if err == nil || !strings.Contains(err.Error(), string(archive.ReasonInvalidContainer)) {
		t.Errorf("import error = %v", err)
	}
	if n := len(f.scene.Nodes()); n != 1 {
		t.Errorf("rejected import changed the scene: %d nodes", n)
	}

	if err := f.exec(t, "import notes.txt"); err == nil {
		t.Error("import of a non-.draw name should fail")
	}
}

func TestEditor_AutoSave(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	f.mustExec(t, "add rect")

	if out := f.mustExec(t, "flush"); out != "flush: ok\n" {
		t.Errorf("flush output = %q", out)
	}
	snap, res := f.store.Load(ctx)
	if !res.OK() || !strings.Contains(snap.JSON, `"rect"`) {
		t.Fatalf("Load() = %v, %+v", snap, res)
	}

	f.mustExec(t, "clear")
	if out := f.mustExec(t, "recover"); out != "recovered 1 nodes\n" {
		t.Errorf("recover output = %q", out)
	}

	if out := f.mustExec(t, "discard"); out != "discard: ok\n" {
		t.Errorf("discard output = %q", out)
	}
	if _, res := f.store.Load(ctx); res.Reason != autosave.ReasonAbsent {
		t.Errorf("record still present after discard: %+v", res)
	}
	if out := f.mustExec(t, "recover"); out != "no usable auto-save record\n" {
		t.Errorf("recover output = %q", out)
	}
}

func TestEditor_Stats(t *testing.T) {
	f := newEditorFixture(t)
	f.mustExec(t, "add rect")
	f.mustExec(t, "flush")

	out := f.mustExec(t, "stats")
	if !strings.HasPrefix(out, "NAME") {
		t.Errorf("stats header missing:\n%s", out)
	}
	if !strings.Contains(out, metric.Namespace+"_") {
		t.Errorf("stats has no drawdoc metrics:\n%s", out)
	}
	if strings.Contains(out, "go_goroutines") {
		t.Errorf("runtime metrics shown without 'all':\n%s", out)
	}
}

func TestEditor_LogLevel(t *testing.T) {
	f := newEditorFixture(t)
	prev := logger.GetLevel()
	t.Cleanup(func() { logger.SetLevel(prev) })

	if out := f.mustExec(t, "loglevel debug"); out != "log level: debug\n" {
		t.Errorf("output = %q", out)
	}
	if out := f.mustExec(t, "loglevel"); out != "log level: debug\n" {
		t.Errorf("output = %q", out)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"10", json.Number("10")},
		{"-2.5", json.Number("-2.5")},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"red", "red"},
		{"#ff0000", "#ff0000"},
		{"null", nil},
		{"1 2", "1 2"},
		{"[1,2]", []any{json.Number("1"), json.Number("2")}},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDescribeSource(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"assets/img_000.png", "assets/img_000.png"},
		{codec.DataURI("image/jpeg", make([]byte, 2048)), "image/jpeg, 2.0 KiB"},
		{"data:image/png;base64,!!!", "data: (undecodable)"},
	}
	for _, tt := range tests {
		if got := describeSource(tt.in); got != tt.want {
			t.Errorf("describeSource(%.30q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
