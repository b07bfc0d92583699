package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/drawdoc/internal/cli/output"
	"github.com/yndnr/drawdoc/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			env, err := GetEnv(c)
			if err != nil {
				return err
			}
			if env.Format == output.FormatTable {
				_, err := fmt.Fprintf(env.Stdout, "drawdoc %s\n", buildinfo.String())
				return err
			}
			return env.Print(buildinfo.Get())
		},
	}
}
