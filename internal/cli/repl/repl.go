package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
)

// DefaultPrompt is printed before every line.
const DefaultPrompt = "drawdoc> "

// Command describes one shell command for help output.
type Command struct {
	Name  string
	Args  string
	Usage string
}

// Executor runs the words of one input line.
type Executor interface {
	Execute(ctx context.Context, args []string) error
	Commands() []Command
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
	logger    *slog.Logger
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithPrompt sets the prompt.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *REPL) { r.logger = l }
}

// New creates a REPL dispatching to exec. Without WithIO it reads nothing
// and writes nowhere.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:   strings.NewReader(""),
		output:  io.Discard,
		prompt:  DefaultPrompt,
		exec:    exec,
		history: NewHistory("", 0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	names := []string{"help", "exit", "quit"}
	for _, c := range exec.Commands() {
		names = append(names, c.Name)
	}
	r.completer = NewCompleter(names...)
	return r
}

// Run reads and executes lines until exit, EOF or ctx is done. Command
// errors are printed and do not stop the loop.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("history not loaded", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("history not saved", "error", err)
		}
	}()

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(r.input)
		for {
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				select {
				case lines <- line:
				case <-stop:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.output, r.prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(r.output)
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.history.Add(line)

		if done := r.dispatch(ctx, line); done {
			return nil
		}
	}
}

// dispatch runs one line and reports whether the shell should exit.
func (r *REPL) dispatch(ctx context.Context, line string) bool {
	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "help", "?":
		r.help(args[1:])
		return false
	}

	if !r.known(args[0]) {
		fmt.Fprintf(r.output, "error: unknown command %q", args[0])
		if s := r.completer.Suggest(args[0]); len(s) > 0 {
			fmt.Fprintf(r.output, " (did you mean: %s)", strings.Join(s, ", "))
		}
		fmt.Fprintln(r.output)
		return false
	}

	if err := r.exec.Execute(ctx, args); err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
	}
	return false
}

func (r *REPL) known(name string) bool {
	for _, c := range r.exec.Commands() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// help lists commands, optionally only those matching a prefix.
func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	match := make(map[string]bool)
	for _, name := range r.completer.Complete(prefix) {
		match[name] = true
	}

	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	for _, c := range r.exec.Commands() {
		if match[c.Name] {
			fmt.Fprintf(tw, "  %s %s\t%s\n", c.Name, c.Args, c.Usage)
		}
	}
	if match["help"] {
		fmt.Fprintf(tw, "  help [PREFIX]\tlist commands\n")
	}
	if match["exit"] || match["quit"] {
		fmt.Fprintf(tw, "  exit, quit\tleave the shell\n")
	}
	tw.Flush()
}
