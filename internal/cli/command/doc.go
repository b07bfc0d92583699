// Package command defines the drawdoc command tree with urfave/cli/v2:
//
//   - root.go: app, global flags, config and logger setup
//   - env.go: per-run environment shared by commands
//   - pack.go, unpack.go, inspect.go, preview.go: .draw archive commands
//   - autosave.go: inspect and manage the crash-recovery record
//   - edit.go: the interactive edit shell
//   - config.go: show, validate and initialise configuration
//   - version.go: build information
package command
