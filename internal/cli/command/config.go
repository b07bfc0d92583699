package command

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration with secrets masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-secrets",
						Usage: "Do not mask encryption secrets",
					},
				},
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
			{
				Name:   "path",
				Usage:  "Show the configuration file in use",
				Action: configPath,
			},
			{
				Name:      "init",
				Usage:     "Write the default configuration to a file",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	cfg := env.Config
	if !c.Bool("show-secrets") {
		cfg = config.Sanitize(cfg)
	}

	// Nested sections do not fit a table.
	if env.Format == output.FormatTable {
		return (&output.YAMLFormatter{}).Format(env.Stdout, cfg)
	}
	return env.Print(cfg)
}

func configValidate(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		path = env.Loader.FilePath()
	}
	if path == "" {
		return errors.New("no configuration file to validate")
	}

	_, loader, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	unknown, err := config.UnknownKeys(loader)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, key := range unknown {
		PrintWarning(c, "%s: unknown key %q", path, key)
	}
	fmt.Fprintf(env.Stdout, "%s: OK\n", path)
	return nil
}

func configPath(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	path := env.Loader.FilePath()
	if path == "" {
		fmt.Fprintf(env.Stdout, "(none; defaults and environment only, looked for %s)\n", config.DefaultConfigPath())
		return nil
	}
	fmt.Fprintln(env.Stdout, path)
	return nil
}

func configInit(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "wrote %s\n", path)
	return nil
}
