// Package repl provides the interactive edit shell for drawdoc.
//
//   - repl.go: line loop, built-in help and exit
//   - split.go: shell-style word splitting
//   - completer.go: prefix completion used for "did you mean" hints
//   - history.go: command history persisted in the data directory
//   - editor.go: document commands bound to a DocumentService
package repl
