package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "drawdoc",
		Usage:   "Pack, inspect and edit .draw canvas documents",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PackCommand(),
			UnpackCommand(),
			InspectCommand(),
			PreviewCommand(),
			AutoSaveCommand(),
			EditCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before:               setup,
		After:                teardown,
		EnableBashCompletion: true,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default: <user config dir>/drawdoc/drawdoc.yaml)",
			EnvVars: []string{"DRAWDOC_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the auto-save store",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Auto-save storage engine: badger, sqlite, memory",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config   string
	Output   string
	Wide     bool
	LogLevel string
	DataDir  string
	Engine   string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:   c.String("config"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
		LogLevel: c.String("log-level"),
		DataDir:  c.String("data-dir"),
		Engine:   c.String("engine"),
	}
}

// overrides maps set flags onto configuration keys.
func (f *GlobalFlags) overrides() map[string]any {
	out := make(map[string]any)
	if f.LogLevel != "" {
		out["log.level"] = f.LogLevel
	}
	if f.DataDir != "" {
		out["storage.data_dir"] = f.DataDir
	}
	if f.Engine != "" {
		out["storage.engine"] = f.Engine
	}
	return out
}

// PrintWarning prints a warning to the app's error writer.
func PrintWarning(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "warning: "+format+"\n", args...)
}
