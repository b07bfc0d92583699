package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/drawdoc/internal/archive"
	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/core/codec"
	"github.com/yndnr/drawdoc/internal/core/service"
	"github.com/yndnr/drawdoc/internal/scene"
	"github.com/yndnr/drawdoc/internal/storage/autosave"
	"github.com/yndnr/drawdoc/internal/telemetry/logger"
	"github.com/yndnr/drawdoc/internal/telemetry/metric"
)

// errUsage marks a command called with the wrong arguments.
var errUsage = errors.New("usage")

// EditorOptions configures an Editor.
type EditorOptions struct {
	Document *service.DocumentService
	Scene    *scene.Scene
	Metrics  *metric.Registry
	Output   io.Writer
	Format   output.Format
}

// Editor executes document commands for the edit shell.
type Editor struct {
	doc     *service.DocumentService
	scene   *scene.Scene
	metrics *metric.Registry
	out     io.Writer
	format  output.Formatter

	commands []Command
	handlers map[string]func(ctx context.Context, args []string) error
}

// NewEditor creates an editor bound to an open document.
func NewEditor(opts EditorOptions) *Editor {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	e := &Editor{
		doc:     opts.Document,
		scene:   opts.Scene,
		metrics: opts.Metrics,
		out:     opts.Output,
		format:  output.NewFormatter(opts.Format, false),
	}

	e.register("add", "KIND [KEY=VALUE...]", "append a node", e.add)
	e.register("rm", "INDEX", "remove a node", e.remove)
	e.register("set", "INDEX KEY VALUE", "set a node attribute", e.set)
	e.register("ls", "", "list top-level nodes", e.list)
	e.register("show", "", "print the scene JSON", e.show)
	e.register("clear", "", "remove every node", e.clear)
	e.register("undo", "", "step back", e.undo)
	e.register("redo", "", "step forward", e.redo)
	e.register("history", "[list]", "show undo/redo state or list entries", e.history)
	e.register("export", "FILE [TITLE]", "write a .draw archive", e.export)
	e.register("import", "FILE", "replace the scene with a .draw archive", e.importFile)
	e.register("flush", "", "write the auto-save record now", e.flush)
	e.register("discard", "", "delete the auto-save record", e.discard)
	e.register("recover", "", "restore the auto-save record", e.recoverRecord)
	e.register("stats", "", "show metrics", e.stats)
	e.register("loglevel", "[LEVEL]", "show or change the log level", e.logLevel)
	return e
}

func (e *Editor) register(name, args, usage string, fn func(context.Context, []string) error) {
	if e.handlers == nil {
		e.handlers = make(map[string]func(context.Context, []string) error)
	}
	e.commands = append(e.commands, Command{Name: name, Args: args, Usage: usage})
	e.handlers[name] = fn
}

// Commands implements Executor.
func (e *Editor) Commands() []Command {
	return e.commands
}

// Execute implements Executor.
func (e *Editor) Execute(ctx context.Context, args []string) error {
	fn, ok := e.handlers[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	err := fn(ctx, args[1:])
	if errors.Is(err, errUsage) {
		for _, c := range e.commands {
			if c.Name == args[0] {
				return fmt.Errorf("usage: %s %s", c.Name, c.Args)
			}
		}
	}
	return err
}

// ============================================================================
// Scene editing
// ============================================================================

func (e *Editor) add(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	attrs := make(map[string]any, len(args)-1)
	for _, kv := range args[1:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("attribute %q is not KEY=VALUE", kv)
		}
		attrs[key] = ParseValue(val)
	}
	i := e.scene.Add(args[0], attrs)
	fmt.Fprintf(e.out, "added %s at %d\n", args[0], i)
	return nil
}

func (e *Editor) remove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return e.scene.Remove(i)
}

func (e *Editor) set(_ context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return e.scene.Set(i, args[1], ParseValue(args[2]))
}

func (e *Editor) clear(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	e.scene.Clear()
	return nil
}

// nodeRow is one line of ls output.
type nodeRow struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Depth int    `json:"depth"`
	Asset string `json:"asset"`
}

func (e *Editor) list(_ context.Context, _ []string) error {
	nodes := e.scene.Nodes()
	rows := make([]nodeRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, nodeRow{
			Index: n.Index,
			Kind:  n.Kind,
			Depth: n.Depth,
			Asset: describeSource(n.Asset),
		})
	}
	return e.format.Format(e.out, rows)
}

// describeSource shortens inline payloads to their media type and size.
func describeSource(src string) string {
	mime, data, isData, err := codec.ParseDataURI(src)
	switch {
	case !isData:
		return src
	case err != nil:
		return "data: (undecodable)"
	default:
		return fmt.Sprintf("%s, %s", mime, output.Bytes(int64(len(data))))
	}
}

func (e *Editor) show(_ context.Context, _ []string) error {
	sceneJSON, err := e.scene.Serialize()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(sceneJSON), "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(e.out)
	return err
}

// ============================================================================
// History
// ============================================================================

func (e *Editor) undo(_ context.Context, _ []string) error {
	if !e.doc.Undo() {
		return errors.New("nothing to undo")
	}
	return nil
}

func (e *Editor) redo(_ context.Context, _ []string) error {
	if !e.doc.Redo() {
		return errors.New("nothing to redo")
	}
	return nil
}

// historyRow is one line of history list output.
type historyRow struct {
	Position int       `json:"position"`
	SavedAt  time.Time `json:"savedAt"`
	Size     string    `json:"size"`
	Current  bool      `json:"current"`
}

func (e *Editor) history(_ context.Context, args []string) error {
	st := e.doc.History()
	if len(args) > 0 {
		if args[0] != "list" {
			return errUsage
		}
		entries := e.doc.HistoryEntries()
		rows := make([]historyRow, 0, len(entries))
		for i, snap := range entries {
			rows = append(rows, historyRow{
				Position: i + 1,
				SavedAt:  snap.Time().UTC(),
				Size:     output.Bytes(int64(len(snap.JSON))),
				Current:  i == st.Index,
			})
		}
		return e.format.Format(e.out, rows)
	}
	return e.format.Format(e.out, struct {
		Position int  `json:"position"`
		Entries  int  `json:"entries"`
		CanUndo  bool `json:"canUndo"`
		CanRedo  bool `json:"canRedo"`
	}{st.Index + 1, st.Len, st.CanUndo, st.CanRedo})
}

// ============================================================================
// Archives
// ============================================================================

func (e *Editor) export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	title := ""
	if len(args) == 2 {
		title = args[1]
	}

	res, err := e.doc.Export(ctx, title)
	if err != nil {
		return err
	}
	if err := archive.WriteFile(args[0], res.Data); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "wrote %s (%s, %d assets)\n", args[0], output.Bytes(int64(len(res.Data))), len(res.Manifest.Assets))
	if res.ThumbnailErr != nil {
		fmt.Fprintf(e.out, "warning: no thumbnail: %v\n", res.ThumbnailErr)
	}
	for _, sk := range res.Skipped {
		fmt.Fprintf(e.out, "warning: %s kept inline: %v\n", sk.Path, sk.Cause)
	}
	return nil
}

func (e *Editor) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	blob, err := archive.ReadFile(args[0])
	if err != nil {
		return err
	}

	res, err := e.doc.Import(ctx, blob)
	if err != nil {
		if res != nil && res.Reason != archive.ReasonNone {
			return fmt.Errorf("%s rejected (%s): %w", args[0], res.Reason, err)
		}
		return err
	}
	fmt.Fprintf(e.out, "imported %s (%d nodes)\n", args[0], len(e.scene.Nodes()))
	if len(res.Unresolved) > 0 {
		fmt.Fprintf(e.out, "warning: unresolved assets: %s\n", strings.Join(res.Unresolved, ", "))
	}
	return nil
}

// ============================================================================
// Auto-save
// ============================================================================

func (e *Editor) flush(ctx context.Context, _ []string) error {
	return e.report("flush", e.doc.FlushAutoSave(ctx))
}

func (e *Editor) discard(ctx context.Context, _ []string) error {
	return e.report("discard", e.doc.DiscardAutoSave(ctx))
}

func (e *Editor) recoverRecord(ctx context.Context, _ []string) error {
	ok, err := e.doc.RecoverAutoSave(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(e.out, "no usable auto-save record")
		return nil
	}
	fmt.Fprintf(e.out, "recovered %d nodes\n", len(e.scene.Nodes()))
	return nil
}

func (e *Editor) report(op string, res autosave.Result) error {
	if res.Outcome == autosave.OutcomeError {
		return fmt.Errorf("%s: %w", op, res.Err)
	}
	msg := string(res.Outcome)
	if res.Reason != autosave.ReasonNone {
		msg += " (" + string(res.Reason) + ")"
	}
	fmt.Fprintf(e.out, "%s: %s\n", op, msg)
	return nil
}

// ============================================================================
// Diagnostics
// ============================================================================

func (e *Editor) stats(_ context.Context, args []string) error {
	samples, err := e.metrics.Snapshot(len(args) > 0 && args[0] == "all")
	if err != nil {
		return err
	}
	table := output.NewTable("NAME", "LABELS", "VALUE")
	for _, s := range samples {
		labels := s.Labels
		if labels == "" {
			labels = "-"
		}
		table.AddRow(s.Name, labels, strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
	return e.format.Format(e.out, table)
}

func (e *Editor) logLevel(_ context.Context, args []string) error {
	switch len(args) {
	case 0:
	case 1:
		if err := logger.SetLevel(args[0]); err != nil {
			return err
		}
	default:
		return errUsage
	}
	fmt.Fprintf(e.out, "log level: %s\n", logger.GetLevel())
	return nil
}

// ParseValue reads an attribute value typed on the command line. JSON
// literals keep their type, numbers stay exact; anything else is a string.
func ParseValue(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	if _, err := dec.Token(); err != io.EOF {
		return s
	}
	return v
}
